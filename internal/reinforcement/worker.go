package reinforcement

import (
	"context"
	"log"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	defaultPoolSize = 2
	defaultRetries  = 3
	retryBackoff    = 2 * time.Second
)

// Worker decouples ingestion from the request path. Resolutions hand their
// feedback row to the pool and return immediately; the pool ingests with
// bounded retry in the background. A dropped or failed request is only
// logged, the row remains eligible for the periodic sweep.
type Worker struct {
	engine  *Engine
	pool    *ants.Pool
	retries int
}

// NewWorker creates a worker over the given engine. poolSize and retries
// fall back to defaults when non-positive.
func NewWorker(engine *Engine, poolSize, retries int) (*Worker, error) {
	if poolSize < 1 {
		poolSize = defaultPoolSize
	}
	if retries < 1 {
		retries = defaultRetries
	}

	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Worker{engine: engine, pool: pool, retries: retries}, nil
}

// Request schedules ingestion of a feedback row. Never blocks; when the
// pool is saturated the request is dropped and left to the sweep.
func (w *Worker) Request(feedbackID string) {
	err := w.pool.Submit(func() { w.run(feedbackID) })
	if err != nil {
		log.Printf("reinforcement: ingestion request for %s dropped (%v), sweep will pick it up", feedbackID, err)
	}
}

func (w *Worker) run(feedbackID string) {
	// Deliberately not tied to the request context: a caller that timed
	// out must still let the background write complete.
	ctx := context.Background()

	for attempt := 1; attempt <= w.retries; attempt++ {
		ok, err := w.engine.IngestFeedback(ctx, feedbackID)
		if err == nil {
			if ok {
				log.Printf("reinforcement: feedback %s ingested", feedbackID)
			} else {
				log.Printf("reinforcement: feedback %s not ingested, left pending", feedbackID)
			}
			return
		}
		log.Printf("reinforcement: attempt %d/%d for feedback %s failed: %v", attempt, w.retries, feedbackID, err)
		if attempt < w.retries {
			time.Sleep(time.Duration(attempt) * retryBackoff)
		}
	}
	log.Printf("reinforcement: giving up on feedback %s, sweep will retry", feedbackID)
}

// Close releases the pool. Queued tasks already running are allowed to
// finish.
func (w *Worker) Close() {
	w.pool.Release()
}
