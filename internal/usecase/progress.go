package usecase

import (
	"math"
	"sync"

	"ReputationScanner/internal/domain"
)

// Sub-steps of one engine. Retrieval covers [SubStepRetrieve, SubStepClassify),
// classification [SubStepClassify, SubStepDone].
const (
	SubStepRetrieve = 0
	SubStepClassify = 1
	SubStepDone     = 2
)

// Progress maps a position inside the pipeline to 0..100. Every engine owns an
// equal share, split evenly between retrieval and classification:
//
//	round(100 * (engineIndex/engineCount + (subStep+subProgress)/(2*engineCount)))
//
// With no engines the job is complete.
func Progress(engineIndex, engineCount, subStep int, subProgress float64) int {
	if engineCount <= 0 {
		return 100
	}
	subStep = min(max(subStep, SubStepRetrieve), SubStepDone)
	subProgress = min(max(subProgress, 0), 1)

	share := float64(engineIndex)/float64(engineCount) +
		(float64(subStep)+subProgress)/(2*float64(engineCount))
	return min(max(int(math.Round(100*share)), 0), 100)
}

// ProgressEvent is published at every stage boundary and on intra-stage progress.
type ProgressEvent struct {
	JobID       string           `json:"job_id"`
	EntityID    string           `json:"entity_id"`
	Engine      string           `json:"engine,omitempty"`
	EngineIndex int              `json:"engine_index"`
	EngineCount int              `json:"engine_count"`
	SubStep     int              `json:"sub_step"`
	SubProgress float64          `json:"sub_progress"`
	Progress    int              `json:"progress"`
	Stage       string           `json:"stage"`
	Status      domain.JobStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
}

// Broker fans progress events out to subscribers. A subscriber whose buffer is
// full misses events; publishing never blocks a job.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[chan ProgressEvent]struct{}
	buffer int
}

// NewBroker sets the per-subscriber buffer size.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broker{subs: map[string]map[chan ProgressEvent]struct{}{}, buffer: buffer}
}

// Subscribe listens to one job, or to every job when jobID is empty. The
// returned func unsubscribes and closes the channel.
func (b *Broker) Subscribe(jobID string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, b.buffer)

	b.mu.Lock()
	if b.subs[jobID] == nil {
		b.subs[jobID] = map[chan ProgressEvent]struct{}{}
	}
	b.subs[jobID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[jobID], ch)
			if len(b.subs[jobID]) == 0 {
				delete(b.subs, jobID)
			}
			close(ch)
		})
	}
}

// Publish delivers ev to the job's subscribers and to catch-all subscribers.
func (b *Broker) Publish(ev ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range []string{ev.JobID, ""} {
		for ch := range b.subs[key] {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
