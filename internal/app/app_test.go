package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReputationScanner/internal/classify"
	"ReputationScanner/internal/config"
	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/logging"
	"ReputationScanner/internal/usecase"
)

func serpServer(t *testing.T, items int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString("<html><body>")
		for i := 0; i < items; i++ {
			fmt.Fprintf(&b, `<div class="r"><a href="https://site%d.example/acme">Acme office %d</a><p>Opening hours and address</p></div>`, i, i)
		}
		b.WriteString("</body></html>")
		_, _ = w.Write([]byte(b.String()))
	}))
}

func testConfig(t *testing.T, serpURL string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: "file", DSN: filepath.Join(t.TempDir(), "graph.json")}
	cfg.Engines.HTML = []config.HTMLEngineConfig{{
		Name:        "serp",
		URLTemplate: serpURL + "/?q={query}&p={page}",
		ResultItem:  ".r",
		Title:       "a",
		Link:        "a",
		Snippet:     "p",
		PageSize:    10,
	}}
	cfg.Engines.Retrieval.PageDelay = 0
	cfg.Classifier.Delay = 0
	return cfg
}

func TestApplicationEndToEnd(t *testing.T) {
	t.Parallel()

	server := serpServer(t, 10)
	defer server.Close()

	ctx := context.Background()
	application, err := New(ctx, testConfig(t, server.URL), logging.New("error", "text"))
	require.NoError(t, err)
	defer application.Close()

	assert.Equal(t, []string{"google", "serp", "yandex"}, application.Engines().Names())

	project, err := application.Catalog().CreateProject(ctx, "Banks")
	require.NoError(t, err)
	entity, err := application.Catalog().CreateEntity(ctx, project.ID, usecase.NewEntity{
		Name:    "Acme",
		Engines: []string{"serp", "yandex"},
	})
	require.NoError(t, err)

	ref := domain.EntityRef{ProjectID: project.ID, EntityID: entity.ID}
	job, created, err := application.Orchestrator().Start(ctx, ref)
	require.NoError(t, err)
	require.True(t, created)

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	done, err := application.Orchestrator().Wait(waitCtx, job.ID)
	require.NoError(t, err)
	require.Equal(t, domain.JobCompleted, done.Status, done.Error)

	serp := done.Result.Engines["serp"]
	require.Len(t, serp.Results, 10)
	assert.Equal(t, "site0.example", serp.Results[0].Domain)
	assert.Equal(t, 10, serp.Metrics.TotalResults)

	// yandex has no credentials: empty, not a failure
	assert.Empty(t, done.Result.Engines["yandex"].Results)

	latest, err := application.Catalog().LatestParsing(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, done.Result.ID, latest.ID)
}

func TestNewClassifierFallsBackToLexical(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Classifier.Backend = config.BackendOpenAI
	cfg.Classifier.APIKey = ""

	svc := NewClassifier(context.Background(), cfg, nil)
	defer svc.Close()

	assert.Nil(t, svc.Backend())
	res := svc.Classify(context.Background(), "", "", "")
	assert.Equal(t, domain.SentimentNeutral, res.Sentiment)
	assert.Equal(t, 0.5, res.Confidence)
	assert.True(t, strings.HasPrefix(res.Explanation, "local analysis"))
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	backend, err := NewBackend(ctx, config.ClassifierConfig{Backend: config.BackendLocal})
	require.NoError(t, err)
	assert.Nil(t, backend)

	_, err = NewBackend(ctx, config.ClassifierConfig{Backend: config.BackendOpenAI})
	assert.True(t, errors.Is(err, classify.ErrNotConfigured))

	_, err = NewBackend(ctx, config.ClassifierConfig{Backend: config.BackendInference})
	assert.True(t, errors.Is(err, classify.ErrNotConfigured))

	backend, err = NewBackend(ctx, config.ClassifierConfig{Backend: config.BackendInference, Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, "inference", backend.Name())

	_, err = NewBackend(ctx, config.ClassifierConfig{Backend: "bert"})
	assert.Error(t, err)
}

func TestClassifierFactoryReadsCurrentConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Classifier.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")
	holder := config.NewHolder(cfg)
	factory := &classifierFactory{holder: holder, logger: logging.New("error", "text")}

	svc := factory.build(context.Background())
	assert.Nil(t, svc.Backend())

	next := holder.Get()
	next.Classifier.Backend = config.BackendInference
	next.Classifier.Endpoint = "http://localhost:9000"
	holder.Set(next)

	svc = factory.build(context.Background())
	require.NotNil(t, svc.Backend())
	assert.Equal(t, "inference", svc.Backend().Name())
}

func TestNewRejectsBrokenWeights(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Scoring.WeightsPath = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := New(context.Background(), cfg, logging.New("error", "text"))
	assert.Error(t, err)
}

func TestNewClassifierAppliesZeroThreshold(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	lexicon := "positive:\n  - {stem: excellent, weight: 3}\nnegative:\n  - {stem: complain, weight: 2}\n"
	require.NoError(t, os.WriteFile(path, []byte(lexicon), 0o600))

	cfg := config.Default()
	cfg.Classifier.LexiconPath = path

	// 3 against 2 is inside the default 0.3 band
	res := NewClassifier(context.Background(), cfg, nil).Classify(context.Background(), "excellent", "complain", "")
	assert.Equal(t, domain.SentimentNeutral, res.Sentiment)

	zero := 0.0
	cfg.Scoring.Threshold = &zero
	res = NewClassifier(context.Background(), cfg, nil).Classify(context.Background(), "excellent", "complain", "")
	assert.Equal(t, domain.SentimentPositive, res.Sentiment)
}
