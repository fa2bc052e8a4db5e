package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/ports"
)

const (
	defaultRetention      = 5 * time.Minute
	defaultPersistTimeout = 10 * time.Second
	notifyTimeout         = 10 * time.Second
)

// OrchestratorDeps wires the driven adapters into the job orchestrator.
type OrchestratorDeps struct {
	Graph       *GraphEditor
	Provider    ports.ResultProvider
	Classifiers ports.ClassifierFactory
	Aggregator  ports.Aggregator
	Registry    *JobRegistry
	Broker      *Broker
	Notifier    ports.Notifier
	Logger      *slog.Logger

	// Retention is how long a finished job stays queryable.
	Retention time.Duration
	// PersistTimeout bounds the finalize step; exceeding it fails the job.
	PersistTimeout time.Duration

	Now   func() time.Time
	NewID func() string
}

// Orchestrator runs retrieve, classify, aggregate and persist for an entity in
// the background, one running job per entity at most.
type Orchestrator struct {
	graph          *GraphEditor
	provider       ports.ResultProvider
	classifiers    ports.ClassifierFactory
	aggregator     ports.Aggregator
	registry       *JobRegistry
	broker         *Broker
	notifier       ports.Notifier
	logger         *slog.Logger
	retention      time.Duration
	persistTimeout time.Duration
	now            func() time.Time
	newID          func() string
}

// NewOrchestrator fills defaults for optional dependencies.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		graph:          deps.Graph,
		provider:       deps.Provider,
		classifiers:    deps.Classifiers,
		aggregator:     deps.Aggregator,
		registry:       deps.Registry,
		broker:         deps.Broker,
		notifier:       deps.Notifier,
		logger:         deps.Logger,
		retention:      deps.Retention,
		persistTimeout: deps.PersistTimeout,
		now:            deps.Now,
		newID:          deps.NewID,
	}
	if o.registry == nil {
		o.registry = NewJobRegistry()
	}
	if o.broker == nil {
		o.broker = NewBroker(0)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.retention <= 0 {
		o.retention = defaultRetention
	}
	if o.persistTimeout <= 0 {
		o.persistTimeout = defaultPersistTimeout
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	return o
}

// Start launches a job for the entity. When the entity already has a running
// job, that job is returned and created is false.
func (o *Orchestrator) Start(ctx context.Context, ref domain.EntityRef) (job domain.Job, created bool, err error) {
	if running, ok := o.registry.RunningFor(ref); ok {
		return running, false, nil
	}

	graph, err := o.graph.Load(ctx)
	if err != nil {
		return domain.Job{}, false, err
	}
	entity := graph.Entity(ref)
	if entity == nil {
		return domain.Job{}, false, fmt.Errorf("%w: %s/%s", ErrEntityNotFound, ref.ProjectID, ref.EntityID)
	}

	job, created = o.registry.Reserve(domain.Job{
		ID:        o.newID(),
		Entity:    ref,
		Status:    domain.JobRunning,
		Stage:     "queued",
		StartedAt: o.now(),
	})
	if !created {
		return job, false, nil
	}

	snapshot := *entity
	snapshot.Engines = append([]string(nil), entity.Engines...)
	snapshot.Parsings = nil

	o.logger.Info("job started", "job_id", job.ID, "entity_id", ref.EntityID, "engines", snapshot.Engines)
	go o.run(job.ID, ref, snapshot)
	return job, true, nil
}

// Job returns a job by id until its retention expires.
func (o *Orchestrator) Job(id string) (domain.Job, error) {
	job, ok := o.registry.Get(id)
	if !ok {
		return domain.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// ActiveJobs lists running and recently finished jobs.
func (o *Orchestrator) ActiveJobs() []domain.Job {
	return o.registry.List()
}

// Subscribe streams progress events of one job, or of all jobs for an empty id.
func (o *Orchestrator) Subscribe(jobID string) (<-chan ProgressEvent, func()) {
	return o.broker.Subscribe(jobID)
}

// Wait blocks until the job reaches a terminal state or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context, jobID string) (domain.Job, error) {
	events, unsubscribe := o.broker.Subscribe(jobID)
	defer unsubscribe()

	// events can be dropped for slow readers, so the registry is polled as well
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, err := o.Job(jobID)
		if err != nil {
			return domain.Job{}, err
		}
		if job.Status.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-events:
		case <-ticker.C:
		}
	}
}

// run executes the stages of one job. Jobs are not cancellable: the context is
// detached from the request that started them.
func (o *Orchestrator) run(jobID string, ref domain.EntityRef, entity domain.Entity) {
	log := o.logger.With("job_id", jobID, "entity_id", ref.EntityID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "panic", r)
			o.fail(jobID, ref, fmt.Errorf("internal error: %v", r))
		}
	}()

	ctx := context.Background()
	classifier := o.classifiers.NewClassifier(ctx)
	defer func() {
		if err := classifier.Close(); err != nil {
			log.Warn("close classifier", "error", err)
		}
	}()

	count := len(entity.Engines)
	outcomes := make(map[string]domain.EngineOutcome, count)

	for i, engine := range entity.Engines {
		step := stepper{o: o, jobID: jobID, entityID: ref.EntityID, engine: engine, index: i, count: count}

		step.emit(SubStepRetrieve, 0, "retrieving results from "+engine)
		raw := o.provider.Retrieve(ctx, domain.Query{
			Text:   entity.Name,
			Engine: engine,
			Depth:  entity.Depth,
			Region: entity.Region,
		}, step.fraction(SubStepRetrieve, "retrieving results from "+engine))
		log.Debug("retrieval done", "engine", engine, "results", len(raw))

		step.emit(SubStepClassify, 0, "classifying results from "+engine)
		results := classifier.ClassifyBatch(ctx, raw, step.fraction(SubStepClassify, "classifying results from "+engine))

		metrics := o.aggregator.Aggregate(results)
		outcomes[engine] = domain.EngineOutcome{Engine: engine, Results: results, Metrics: metrics}
		step.emit(SubStepDone, 0, engine+" done")
		log.Debug("engine done", "engine", engine, "rating", metrics.RatingText(), "risk", metrics.RiskLevel)
	}

	parsing := domain.Parsing{
		ID:        o.newID(),
		Query:     entity.Name,
		Region:    entity.Region,
		Engines:   outcomes,
		CreatedAt: o.now(),
	}

	o.registry.Advance(jobID, Progress(max(count-1, 0), count, SubStepDone, 0), "saving results")
	if err := o.persist(ref, parsing); err != nil {
		log.Error("job failed", "error", err)
		o.fail(jobID, ref, err)
		return
	}

	// the digest goes out before completion so Wait callers never outlive it
	o.notify(jobID, entity, parsing, log)

	job, ok := o.registry.Complete(jobID, parsing, o.now())
	if !ok {
		return
	}
	log.Info("job completed", "engines", count)
	o.publishTerminal(job)
	o.scheduleRemoval(jobID)
}

// persist reloads the graph so edits made while the job ran are kept.
func (o *Orchestrator) persist(ref domain.EntityRef, parsing domain.Parsing) error {
	ctx, cancel := context.WithTimeout(context.Background(), o.persistTimeout)
	defer cancel()

	return o.graph.Edit(ctx, func(graph *domain.Graph) error {
		entity := graph.Entity(ref)
		if entity == nil {
			return fmt.Errorf("%w: %s/%s", ErrEntityNotFound, ref.ProjectID, ref.EntityID)
		}
		entity.Parsings = append(entity.Parsings, parsing)
		return nil
	})
}

func (o *Orchestrator) fail(jobID string, ref domain.EntityRef, err error) {
	message := err.Error()
	var perr *PersistenceError
	if errors.As(err, &perr) && errors.Is(perr.Err, context.DeadlineExceeded) {
		message = "saving results timed out: " + message
	}

	job, ok := o.registry.Fail(jobID, message, o.now())
	if !ok {
		return
	}
	o.publishTerminal(job)
	o.scheduleRemoval(jobID)
}

func (o *Orchestrator) publishTerminal(job domain.Job) {
	o.broker.Publish(ProgressEvent{
		JobID:    job.ID,
		EntityID: job.Entity.EntityID,
		Progress: job.Progress,
		Stage:    job.Stage,
		Status:   job.Status,
		Error:    job.Error,
	})
}

func (o *Orchestrator) scheduleRemoval(jobID string) {
	time.AfterFunc(o.retention, func() {
		o.registry.Remove(jobID)
	})
}

func (o *Orchestrator) notify(jobID string, entity domain.Entity, parsing domain.Parsing, log *slog.Logger) {
	if o.notifier == nil {
		return
	}
	o.registry.Advance(jobID, Progress(max(len(entity.Engines)-1, 0), len(entity.Engines), SubStepDone, 0), "sending digest")
	defer func() {
		if r := recover(); r != nil {
			log.Warn("digest notifier panicked", "panic", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := o.notifier.PublishDigest(ctx, BuildDigest(entity, parsing)); err != nil {
		log.Warn("digest not delivered", "error", err)
	}
}

// stepper reports progress for one engine of one job.
type stepper struct {
	o        *Orchestrator
	jobID    string
	entityID string
	engine   string
	index    int
	count    int
}

func (s stepper) emit(subStep int, subProgress float64, stage string) {
	progress := Progress(s.index, s.count, subStep, subProgress)
	s.o.registry.Advance(s.jobID, progress, stage)
	s.o.broker.Publish(ProgressEvent{
		JobID:       s.jobID,
		EntityID:    s.entityID,
		Engine:      s.engine,
		EngineIndex: s.index,
		EngineCount: s.count,
		SubStep:     subStep,
		SubProgress: subProgress,
		Progress:    progress,
		Stage:       stage,
		Status:      domain.JobRunning,
	})
}

func (s stepper) fraction(subStep int, stage string) func(done, total int) {
	return func(done, total int) {
		if total <= 0 {
			return
		}
		s.emit(subStep, float64(done)/float64(total), stage)
	}
}
