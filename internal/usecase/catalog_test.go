package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReputationScanner/internal/domain"
)

type engineNames map[string]bool

func (e engineNames) Has(name string) bool { return e[name] }

func TestCatalog_CreateAndList(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	catalog := NewCatalog(NewGraphEditor(store), engineNames{"yandex": true, "google": true})
	ctx := context.Background()

	projects, err := catalog.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	project, err := catalog.CreateProject(ctx, "  Banks ")
	require.NoError(t, err)
	assert.Equal(t, "Banks", project.Name)
	assert.NotEmpty(t, project.ID)

	entity, err := catalog.CreateEntity(ctx, project.ID, NewEntity{Name: "Acme", Engines: []string{"Yandex", "google", "yandex"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"yandex", "google"}, entity.Engines)
	assert.Equal(t, DefaultDepth, entity.Depth)

	projects, err = catalog.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Len(t, projects[0].Entities, 1)

	ref := domain.EntityRef{ProjectID: project.ID, EntityID: entity.ID}
	got, err := catalog.GetEntity(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = catalog.LatestParsing(ctx, ref)
	assert.ErrorIs(t, err, ErrParsingNotFound)

	refs, err := catalog.EntityRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.EntityRef{ref}, refs)
}

func TestCatalog_Validation(t *testing.T) {
	t.Parallel()

	store := seededStore("yandex")
	catalog := NewCatalog(NewGraphEditor(store), engineNames{"yandex": true})
	ctx := context.Background()

	_, err := catalog.CreateProject(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = catalog.CreateEntity(ctx, "p1", NewEntity{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = catalog.CreateEntity(ctx, "p1", NewEntity{Name: "Acme", Depth: 101})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = catalog.CreateEntity(ctx, "p1", NewEntity{Name: "Acme", Engines: []string{"bing"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = catalog.CreateEntity(ctx, "nope", NewEntity{Name: "Acme"})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = catalog.GetEntity(ctx, domain.EntityRef{ProjectID: "p1", EntityID: "nope"})
	assert.ErrorIs(t, err, ErrEntityNotFound)

	assert.Zero(t, store.saves)
}

func TestCatalog_LatestParsing(t *testing.T) {
	t.Parallel()

	store := seededStore("yandex")
	store.graph.Projects[0].Entities[0].Parsings = []domain.Parsing{{ID: "old"}, {ID: "new"}}
	catalog := NewCatalog(NewGraphEditor(store), nil)

	parsing, err := catalog.LatestParsing(context.Background(), refAcme)
	require.NoError(t, err)
	assert.Equal(t, "new", parsing.ID)
}

func TestScheduler_RefreshStartsEveryEntityOnce(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	store := seededStore("yandex")
	h := newHarness(t, store, &fakeProvider{gate: gate}, time.Minute)
	scheduler := NewScheduler(nil, NewCatalog(NewGraphEditor(store), nil), h.orchestrator, nil)

	ctx := context.Background()
	assert.Equal(t, 2, scheduler.Refresh(ctx, time.Now()))
	assert.Equal(t, 0, scheduler.Refresh(ctx, time.Now()), "running jobs are kept")

	close(gate)
	for _, job := range h.orchestrator.ActiveJobs() {
		assert.Equal(t, domain.JobCompleted, waitJob(t, h.orchestrator, job.ID).Status)
	}
	require.NoError(t, scheduler.Start(ctx))
	require.NoError(t, scheduler.Stop(ctx))
}

func TestRegistry_ReserveAndFinish(t *testing.T) {
	t.Parallel()

	r := NewJobRegistry()
	now := time.Now()

	job, ok := r.Reserve(domain.Job{ID: "a", Entity: refAcme, Status: domain.JobRunning, StartedAt: now})
	require.True(t, ok)

	dup, ok := r.Reserve(domain.Job{ID: "b", Entity: refAcme, Status: domain.JobRunning, StartedAt: now})
	assert.False(t, ok)
	assert.Equal(t, job.ID, dup.ID)

	assert.True(t, r.Advance("a", 40, "classifying"))
	got, _ := r.Get("a")
	assert.Equal(t, 40, got.Progress)

	failed, ok := r.Fail("a", "boom", now)
	require.True(t, ok)
	assert.Equal(t, domain.JobError, failed.Status)

	assert.False(t, r.Advance("a", 90, "late"), "terminal jobs are frozen")
	_, ok = r.Complete("a", domain.Parsing{}, now)
	assert.False(t, ok)

	_, ok = r.RunningFor(refAcme)
	assert.False(t, ok)
	_, ok = r.Reserve(domain.Job{ID: "c", Entity: refAcme, Status: domain.JobRunning, StartedAt: now.Add(time.Second)})
	assert.True(t, ok)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	r.Remove("a")
	_, ok = r.Get("a")
	assert.False(t, ok)
}

func TestBroker(t *testing.T) {
	t.Parallel()

	b := NewBroker(1)
	jobEvents, unsubJob := b.Subscribe("j1")
	allEvents, unsubAll := b.Subscribe("")
	defer unsubAll()

	b.Publish(ProgressEvent{JobID: "j1", Progress: 10})
	b.Publish(ProgressEvent{JobID: "j1", Progress: 20}) // dropped: buffer full
	b.Publish(ProgressEvent{JobID: "j2", Progress: 30})

	assert.Equal(t, 10, (<-jobEvents).Progress)
	assert.Equal(t, 10, (<-allEvents).Progress)

	unsubJob()
	unsubJob()
	_, open := <-jobEvents
	assert.False(t, open)

	b.Publish(ProgressEvent{JobID: "j1", Progress: 40})
	assert.Equal(t, 40, (<-allEvents).Progress)
}

func TestBuildDigest(t *testing.T) {
	t.Parallel()

	entity := domain.Entity{Name: "Acme_Bank", Engines: []string{"yandex", "google"}}
	parsing := domain.Parsing{Engines: map[string]domain.EngineOutcome{
		"google": {Metrics: domain.ReputationMetrics{Rating: 20, RiskLevel: domain.RiskHigh, NegativeCount: 8, TotalResults: 10}},
		"yandex": {Metrics: domain.ReputationMetrics{Rating: 87.5, RiskLevel: domain.RiskLow, NeutralCount: 10, TotalResults: 10}},
	}}

	digest := BuildDigest(entity, parsing)
	assert.Contains(t, digest, "*Acme\\_Bank*")
	assert.Contains(t, digest, "- yandex: rating 87.5, risk low\n")
	assert.Contains(t, digest, "- google: rating 20.0, risk high HIGH RISK")
	assert.Less(t, strings.Index(digest, "yandex"), strings.Index(digest, "google"))

	assert.Contains(t, BuildDigest(entity, domain.Parsing{}), "No engines configured.")
}
