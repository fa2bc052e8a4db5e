package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ReputationScanner/internal/config"
	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/scanner"
)

const defaultHTMLPageSize = 10

// HTMLEngine scrapes a plain HTML results page with CSS selectors.
type HTMLEngine struct {
	cfg    config.HTMLEngineConfig
	client *http.Client
}

var _ scanner.Engine = (*HTMLEngine)(nil)

// NewHTMLEngine wires an HTTP client; a nil client gets a 20s timeout.
func NewHTMLEngine(cfg config.HTMLEngineConfig, client *http.Client) *HTMLEngine {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultHTMLPageSize
	}
	return &HTMLEngine{cfg: cfg, client: client}
}

// Name identifies the engine inside the registry.
func (h *HTMLEngine) Name() string {
	return h.cfg.Name
}

// PageSize is the number of results a full page holds.
func (h *HTMLEngine) PageSize() int {
	return h.cfg.PageSize
}

// FetchPage downloads one results page and extracts its items in page order.
func (h *HTMLEngine) FetchPage(ctx context.Context, req scanner.PageRequest) ([]domain.RawResult, error) {
	if h.cfg.URLTemplate == "" || h.cfg.ResultItem == "" {
		return nil, fmt.Errorf("html engine %s: %w", h.cfg.Name, scanner.ErrNotConfigured)
	}

	pageURL := buildPageURL(h.cfg.URLTemplate, req, h.cfg.PageSize)
	doc, err := h.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("html engine %s: %w", h.cfg.Name, err)
	}

	return h.extractResults(doc, pageURL), nil
}

func (h *HTMLEngine) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ReputationScanner/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("results page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (h *HTMLEngine) extractResults(doc *goquery.Document, pageURL string) []domain.RawResult {
	var results []domain.RawResult
	doc.Find(h.cfg.ResultItem).Each(func(_ int, item *goquery.Selection) {
		result, ok := parseItem(item, h.cfg, pageURL)
		if !ok {
			return
		}
		result.Position = len(results) + 1
		results = append(results, result)
	})
	return results
}

func parseItem(item *goquery.Selection, cfg config.HTMLEngineConfig, pageURL string) (domain.RawResult, bool) {
	title := collapseSpace(pick(item, cfg.Title).Text())

	link := pick(item, cfg.Link)
	href, _ := link.Attr("href")
	target := resolveLink(pageURL, href)
	if target == "" {
		return domain.RawResult{}, false
	}

	snippet := ""
	if cfg.Snippet != "" {
		snippet = collapseSpace(item.Find(cfg.Snippet).First().Text())
	}

	return domain.RawResult{
		URL:     target,
		Title:   title,
		Snippet: snippet,
		Domain:  domain.HostOf(target),
		Type:    domain.ResultTypeOrganic,
	}, true
}

func pick(item *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return item
	}
	return item.Find(selector).First()
}

// resolveLink makes href absolute and unwraps engine redirect links.
func resolveLink(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)

	query := abs.Query()
	if target := query.Get("uddg"); strings.HasPrefix(target, "http") {
		return target
	}
	if abs.Path == "/url" || abs.Path == "/l/" {
		for _, key := range []string{"url", "q"} {
			if target := query.Get(key); strings.HasPrefix(target, "http") {
				return target
			}
		}
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func buildPageURL(template string, req scanner.PageRequest, pageSize int) string {
	replacer := strings.NewReplacer(
		"{query}", url.QueryEscape(req.Query),
		"{page}", strconv.Itoa(req.Page),
		"{offset}", strconv.Itoa(req.Page*pageSize),
		"{region}", url.QueryEscape(req.Region),
	)
	return replacer.Replace(template)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
