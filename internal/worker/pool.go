package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type queuedJob struct {
	seq int
	job Job
}

type queuedResult struct {
	seq    int
	result Result
}

// Pool runs jobs on a fixed number of workers. Results are drained as they
// arrive, so Submit never blocks on unread results, and Wait returns them in
// submission order.
type Pool struct {
	workers    int
	jobQueue   chan queuedJob
	results    chan queuedResult
	wg         sync.WaitGroup
	collected  chan map[int]Result
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu        sync.Mutex
	submitted int
	closed    bool
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops the workers.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan queuedJob, workers*2),
		results:    make(chan queuedResult, workers*2),
		collected:  make(chan map[int]Result, 1),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	go func() {
		out := make(map[int]Result)
		for r := range p.results {
			out[r.seq] = r.result
		}
		p.collected <- out
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case qj, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- queuedResult{seq: qj.seq, result: qj.job.Execute(p.ctx)}
		}
	}
}

// Submit queues a job. It reports false when the pool was cancelled or
// already waited on.
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- queuedJob{seq: p.submitted, job: job}:
		p.submitted++
		return true
	}
}

// Wait closes the queue, waits for the workers and returns results in
// submission order. Jobs dropped by cancellation have no result.
func (p *Pool) Wait() []Result {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
	n := p.submitted
	p.mu.Unlock()

	p.wg.Wait()
	close(p.results)
	byIndex := <-p.collected
	p.cancelFunc()

	results := make([]Result, 0, len(byIndex))
	for i := 0; i < n; i++ {
		if r, ok := byIndex[i]; ok {
			results = append(results, r)
		}
	}
	return results
}

// Shutdown cancels running jobs; Wait still has to be called to collect results
func (p *Pool) Shutdown() {
	p.cancelFunc()
}
