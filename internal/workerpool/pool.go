package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/models"
	"socialharvest/pkg/ratelimit"
)

// FetchJob is one identifier to fetch.
type FetchJob struct {
	Identifier models.Identifier
}

// FetchResult pairs a job with its fetch outcome.
type FetchResult struct {
	Job      FetchJob
	Result   fetcher.Result
	Duration time.Duration
}

// Pool runs fetches across a bounded set of workers. Results flow out
// over a channel to a single collector; workers share no mutable state.
type Pool struct {
	numWorkers  int
	jobQueue    chan FetchJob
	resultQueue chan FetchResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetch       fetcher.Fetcher
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// New creates a fetch worker pool. The fetcher is shared across
// workers and must be safe for concurrent use.
func New(ctx context.Context, numWorkers int, f fetcher.Fetcher, rl ratelimit.Limiter, log logger.Logger) *Pool {
	poolCtx, cancel := context.WithCancel(ctx)

	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan FetchJob, numWorkers*2),
		resultQueue: make(chan FetchResult, numWorkers),
		ctx:         poolCtx,
		cancel:      cancel,
		fetch:       f,
		rateLimiter: rl,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
		"platform":    p.fetch.Platform(),
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the job queue, waits for workers to drain it and closes
// the result queue.
func (p *Pool) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	p.logger.Debug("Worker pool stopped")
}

// Submit adds an identifier to the queue.
func (p *Pool) Submit(job FetchJob) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", p.ctx.Err())
	}
}

// Results returns the result channel for the collector goroutine.
func (p *Pool) Results() <-chan FetchResult {
	return p.resultQueue
}

// worker is the main worker routine
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.processJob(job, id)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// processJob paces one fetch through the shared rate limiter.
func (p *Pool) processJob(job FetchJob, workerID int) FetchResult {
	start := time.Now()

	p.logger.DebugWithFields("Worker processing identifier", map[string]interface{}{
		"worker_id":  workerID,
		"identifier": job.Identifier.String(),
	})

	if p.rateLimiter != nil {
		if err := p.rateLimiter.Wait(p.ctx); err != nil {
			return FetchResult{
				Job:      job,
				Result:   fetcher.Fail(fetcher.StatusTransient, fmt.Errorf("run cancelled: %w", err)),
				Duration: time.Since(start),
			}
		}
	}

	result := p.fetch.Fetch(p.ctx, job.Identifier)

	p.logger.DebugWithFields("Worker completed identifier", map[string]interface{}{
		"worker_id":  workerID,
		"identifier": job.Identifier.String(),
		"status":     result.Status.String(),
		"duration":   time.Since(start),
	})

	return FetchResult{
		Job:      job,
		Result:   result,
		Duration: time.Since(start),
	}
}
