package parser

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ReputationScanner/internal/config"
	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/scanner"
)

// YandexEngine queries the Yandex Search XML API.
type YandexEngine struct {
	cfg    config.YandexConfig
	client *http.Client
}

var _ scanner.Engine = (*YandexEngine)(nil)

// NewYandexEngine wires an HTTP client; a nil client gets a 20s timeout.
func NewYandexEngine(cfg config.YandexConfig, client *http.Client) *YandexEngine {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &YandexEngine{cfg: cfg, client: client}
}

// Name identifies the engine inside the registry.
func (y *YandexEngine) Name() string {
	return "yandex"
}

// PageSize is the number of documents requested per page.
func (y *YandexEngine) PageSize() int {
	return y.cfg.PageSize
}

// FetchPage requests one flat page of results.
func (y *YandexEngine) FetchPage(ctx context.Context, req scanner.PageRequest) ([]domain.RawResult, error) {
	if y.cfg.APIKey == "" || y.cfg.FolderID == "" {
		return nil, fmt.Errorf("yandex: %w", scanner.ErrNotConfigured)
	}

	endpoint, err := y.pageURL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("yandex: build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "ReputationScanner/1.0")

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("yandex: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yandex returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload yandexSearch
	if err := xml.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("yandex: decode response: %w", err)
	}
	if e := payload.Response.Error; e.Code != "" {
		// code 15: nothing found
		if e.Code == "15" {
			return nil, nil
		}
		return nil, fmt.Errorf("yandex error %s: %s", e.Code, strings.TrimSpace(e.Text))
	}

	var results []domain.RawResult
	for _, group := range payload.Response.Results.Grouping.Groups {
		for _, doc := range group.Docs {
			snippet := strings.TrimSpace(string(doc.Headline))
			if len(doc.Passages) > 0 {
				parts := make([]string, 0, len(doc.Passages))
				for _, p := range doc.Passages {
					parts = append(parts, strings.TrimSpace(string(p)))
				}
				snippet = strings.Join(parts, " ")
			}
			host := strings.TrimPrefix(strings.ToLower(doc.Domain), "www.")
			if host == "" {
				host = domain.HostOf(doc.URL)
			}
			results = append(results, domain.RawResult{
				Position: len(results) + 1,
				URL:      doc.URL,
				Title:    collapseSpace(string(doc.Title)),
				Snippet:  collapseSpace(snippet),
				Domain:   host,
				Type:     domain.ResultTypeOrganic,
			})
		}
	}
	return results, nil
}

func (y *YandexEngine) pageURL(req scanner.PageRequest) (string, error) {
	parsed, err := url.Parse(y.cfg.Endpoint)
	if err != nil || y.cfg.Endpoint == "" {
		return "", fmt.Errorf("yandex: invalid endpoint %q", y.cfg.Endpoint)
	}
	q := parsed.Query()
	q.Set("folderid", y.cfg.FolderID)
	q.Set("apikey", y.cfg.APIKey)
	q.Set("query", req.Query)
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("sortby", "rlv")
	q.Set("filter", "none")
	q.Set("groupby", fmt.Sprintf("attr=\"\".mode=flat.groups-on-page=%d.docs-in-group=1", y.cfg.PageSize))
	if req.Region != "" {
		q.Set("lr", req.Region)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

type yandexSearch struct {
	XMLName  xml.Name `xml:"yandexsearch"`
	Response struct {
		Error struct {
			Code string `xml:"code,attr"`
			Text string `xml:",chardata"`
		} `xml:"error"`
		Results struct {
			Grouping struct {
				Groups []struct {
					Docs []yandexDoc `xml:"doc"`
				} `xml:"group"`
			} `xml:"grouping"`
		} `xml:"results"`
	} `xml:"response"`
}

type yandexDoc struct {
	URL      string    `xml:"url"`
	Domain   string    `xml:"domain"`
	Title    xmlText   `xml:"title"`
	Headline xmlText   `xml:"headline"`
	Passages []xmlText `xml:"passages>passage"`
}

// xmlText flattens mixed content such as <title>Acme <hlword>bank</hlword></title>.
type xmlText string

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	*t = xmlText(b.String())
	return nil
}
