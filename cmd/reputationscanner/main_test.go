package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"ReputationScanner/internal/app"
	"ReputationScanner/internal/classify"
	"ReputationScanner/internal/config"
	"ReputationScanner/internal/domain"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMetricsCommand(t *testing.T) {
	results := make([]domain.SearchResult, 10)
	for i := range results {
		results[i] = domain.SearchResult{Position: i + 1, URL: "https://example.com", Sentiment: domain.SentimentPositive}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out, err := execute(t, string(raw), "metrics")
	if err != nil {
		t.Fatalf("metrics command: %v", err)
	}

	var m domain.ReputationMetrics
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if m.Rating != 100 || m.PositiveCount != 10 || m.RiskLevel != domain.RiskLow {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestMetricsCommandBadInput(t *testing.T) {
	if _, err := execute(t, "{not json", "metrics"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClassifyCommand(t *testing.T) {
	out, err := execute(t, "", "classify", "--title", "Acme fraud lawsuit", "--snippet", "court confirms scam", "--url", "https://news.example/acme")
	if err != nil {
		t.Fatalf("classify command: %v", err)
	}

	var res classify.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if res.Sentiment != domain.SentimentNegative {
		t.Fatalf("expected negative, got %+v", res)
	}
}

func TestWatchReloadAppliesClassifierConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: "file", DSN: filepath.Join(t.TempDir(), "graph.json")}
	application, err := app.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer application.Close()

	t.Setenv("REPUTATION_SCANNER_CONFIG", "")
	t.Setenv("CLASSIFIER_BACKEND", config.BackendInference)

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	done := make(chan struct{})
	go func() {
		watchReload(ctx, application, signals)
		close(done)
	}()

	signals <- syscall.SIGHUP
	deadline := time.Now().Add(5 * time.Second)
	for application.Config().Get().Classifier.Backend != config.BackendInference {
		if time.Now().After(deadline) {
			t.Fatalf("configuration was not reloaded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	<-done
}
