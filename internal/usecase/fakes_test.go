package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ReputationScanner/internal/classify"
	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/metrics"
	"ReputationScanner/internal/ports"
	"ReputationScanner/internal/sentiment"
)

type memStore struct {
	mu      sync.Mutex
	graph   domain.Graph
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) LoadGraph(ctx context.Context) (domain.Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.Graph{}, m.loadErr
	}
	return cloneGraph(m.graph), nil
}

func (m *memStore) SaveGraph(ctx context.Context, graph domain.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.graph = cloneGraph(graph)
	m.saves++
	return nil
}

// snapshot returns a copy the caller may inspect through pointer helpers.
func (m *memStore) snapshot() *domain.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := cloneGraph(m.graph)
	return &g
}

func cloneGraph(g domain.Graph) domain.Graph {
	out := domain.Graph{Projects: make([]domain.Project, len(g.Projects))}
	for i, p := range g.Projects {
		p.Entities = append([]domain.Entity(nil), p.Entities...)
		for j := range p.Entities {
			p.Entities[j].Parsings = append([]domain.Parsing(nil), p.Entities[j].Parsings...)
			for k := range p.Entities[j].Parsings {
				engines := make(map[string]domain.EngineOutcome, len(p.Entities[j].Parsings[k].Engines))
				for name, outcome := range p.Entities[j].Parsings[k].Engines {
					outcome.Results = append([]domain.SearchResult(nil), outcome.Results...)
					engines[name] = outcome
				}
				p.Entities[j].Parsings[k].Engines = engines
			}
		}
		out.Projects[i] = p
	}
	return out
}

type fakeProvider struct {
	mu      sync.Mutex
	results map[string][]domain.RawResult
	queries []domain.Query
	gate    chan struct{}
	panics  bool
}

func (f *fakeProvider) Retrieve(ctx context.Context, q domain.Query, progress func(done, total int)) []domain.RawResult {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.panics {
		panic("boom")
	}

	items := append([]domain.RawResult(nil), f.results[q.Engine]...)
	if len(items) > q.Depth {
		items = items[:q.Depth]
	}
	if progress != nil {
		progress(len(items), q.Depth)
	}
	return items
}

func (f *fakeProvider) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type recordingNotifier struct {
	mu      sync.Mutex
	delay   time.Duration
	err     error
	panics  bool
	digests []string
}

func (n *recordingNotifier) PublishDigest(ctx context.Context, digest string) error {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	if n.panics {
		panic("notifier down")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, digest)
	return n.err
}

func (n *recordingNotifier) delivered() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.digests...)
}

type lexicalFactory struct {
	lexical *sentiment.Classifier
}

func (f lexicalFactory) NewClassifier(ctx context.Context) ports.BatchClassifier {
	return classify.NewService(nil, f.lexical, classify.Options{}, nil)
}

func syntheticClassifier(t *testing.T) *sentiment.Classifier {
	t.Helper()
	c, err := sentiment.New(sentiment.Lexicon{
		Positive:  []sentiment.Stem{{Stem: "excellent", Weight: 3}},
		Negative:  []sentiment.Stem{{Stem: "fraud", Weight: 3}},
		Negations: []string{"not"},
	})
	require.NoError(t, err)
	return c
}

func neutralResults(n int) []domain.RawResult {
	out := make([]domain.RawResult, n)
	for i := range out {
		out[i] = domain.RawResult{
			Position: i + 1,
			URL:      fmt.Sprintf("https://site%d.example/acme", i),
			Title:    fmt.Sprintf("Acme company page %d", i),
			Snippet:  "Contacts and address of the office",
			Domain:   fmt.Sprintf("site%d.example", i),
			Type:     domain.ResultTypeOrganic,
		}
	}
	return out
}

func seededStore(engines ...string) *memStore {
	return &memStore{graph: domain.Graph{Projects: []domain.Project{{
		ID:   "p1",
		Name: "Banks",
		Entities: []domain.Entity{
			{ID: "e1", Name: "Acme", Engines: engines, Depth: 10},
			{ID: "e2", Name: "Globex", Engines: engines, Depth: 10},
		},
	}}}}
}

var (
	refAcme   = domain.EntityRef{ProjectID: "p1", EntityID: "e1"}
	refGlobex = domain.EntityRef{ProjectID: "p1", EntityID: "e2"}
)

type harness struct {
	store        *memStore
	provider     *fakeProvider
	orchestrator *Orchestrator
	broker       *Broker
}

func newHarness(t *testing.T, store *memStore, provider *fakeProvider, retention time.Duration) harness {
	t.Helper()
	broker := NewBroker(512)
	o := NewOrchestrator(OrchestratorDeps{
		Graph:          NewGraphEditor(store),
		Provider:       provider,
		Classifiers:    lexicalFactory{lexical: syntheticClassifier(t)},
		Aggregator:     metrics.NewDefaultAggregator(),
		Broker:         broker,
		Retention:      retention,
		PersistTimeout: time.Second,
	})
	return harness{store: store, provider: provider, orchestrator: o, broker: broker}
}

func waitJob(t *testing.T, o *Orchestrator, id string) domain.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := o.Wait(ctx, id)
	require.NoError(t, err)
	return job
}
