// Package executor runs upload tasks on a fixed-size pool of workers.
//
// Workers share one unbounded task queue and one result channel. Upload
// failures are recorded as outcome data and never stop the pool or sibling
// uploads; the pool itself has no retry or timeout logic.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// Config holds the pool configuration.
type Config struct {
	// Bucket is the destination of every upload
	Bucket string

	// Workers is the number of concurrent workers; <= 0 means runtime.NumCPU()
	Workers int

	// Logger receives per-file lines; callers attach batch and bucket attributes
	Logger *slog.Logger
}

// Pool is a fixed-size set of workers draining a task queue.
type Pool struct {
	ctx     context.Context
	bucket  string
	upload  releasetypes.UploadFunc
	workers int
	logger  *slog.Logger

	queue   *taskQueue
	results chan releasetypes.UploadOutcome

	// pending counts submitted tasks whose outcome has not been collected yet
	pending sync.WaitGroup

	mu       sync.Mutex
	outcomes []releasetypes.UploadOutcome

	workerWG      sync.WaitGroup
	collectorDone chan struct{}
	closeOnce     sync.Once

	submitted int64
	completed int64
	failed    int64
}

// New starts a pool of workers invoking upload for each submitted task.
// The context is handed to every upload call; callers that must not
// interrupt in-flight uploads pass a context detached from cancellation.
func New(ctx context.Context, cfg Config, upload releasetypes.UploadFunc) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(workers, 1)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		ctx:           ctx,
		bucket:        cfg.Bucket,
		upload:        upload,
		workers:       workers,
		logger:        logger,
		queue:         newTaskQueue(),
		results:       make(chan releasetypes.UploadOutcome, workers),
		collectorDone: make(chan struct{}),
	}

	p.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	go p.collect()

	return p
}

// Submit enqueues a task. It never blocks beyond queue insertion.
// Submit must not be called concurrently with AwaitAll.
func (p *Pool) Submit(task releasetypes.UploadTask) error {
	p.pending.Add(1)
	if !p.queue.push(task) {
		p.pending.Done()
		return errors.NewObjectError("submit", p.bucket, task.DestinationKey, errors.ErrPoolClosed)
	}
	atomic.AddInt64(&p.submitted, 1)
	return nil
}

// AwaitAll blocks until every submitted task has produced an outcome and
// returns those outcomes in completion order, which is not deterministic.
// The pool keeps running and may receive further tasks afterwards.
func (p *Pool) AwaitAll() []releasetypes.UploadOutcome {
	p.pending.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	outcomes := p.outcomes
	p.outcomes = nil
	return outcomes
}

// Close stops accepting tasks, lets the workers drain the queue and waits
// for them to exit. Outcomes of drained tasks remain available to AwaitAll.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.queue.close()
		p.workerWG.Wait()
		close(p.results)
		<-p.collectorDone
	})
}

// worker dequeues tasks until the queue is closed and empty.
func (p *Pool) worker() {
	defer p.workerWG.Done()

	for {
		task, ok := p.queue.pop()
		if !ok {
			return
		}
		p.results <- p.run(task)
	}
}

// run invokes the upload primitive for one task and converts its result,
// including a panic, into an outcome.
func (p *Pool) run(task releasetypes.UploadTask) (outcome releasetypes.UploadOutcome) {
	start := time.Now()
	outcome.Task = task

	defer func() {
		if r := recover(); r != nil {
			outcome.Succeeded = false
			outcome.Err = errors.NewObjectError("upload", p.bucket, task.DestinationKey,
				fmt.Errorf("%w: panic: %v", errors.ErrUploadFailed, r))
		}
		outcome.Duration = time.Since(start)
	}()

	if err := p.upload(p.ctx, p.bucket, task.DestinationKey, task.SourcePath); err != nil {
		outcome.Err = errors.NewObjectError("upload", p.bucket, task.DestinationKey,
			errors.Wrap(errors.ErrUploadFailed, err))
		return outcome
	}

	outcome.Succeeded = true
	return outcome
}

// collect drains the result channel into the outcome list.
func (p *Pool) collect() {
	defer close(p.collectorDone)

	for outcome := range p.results {
		if outcome.Succeeded {
			p.logger.Debug("upload completed",
				"key", outcome.Task.DestinationKey,
				"duration", outcome.Duration)
		} else {
			atomic.AddInt64(&p.failed, 1)
			p.logger.Warn("upload failed",
				"key", outcome.Task.DestinationKey,
				"error", outcome.Err)
		}

		p.mu.Lock()
		p.outcomes = append(p.outcomes, outcome)
		p.mu.Unlock()

		atomic.AddInt64(&p.completed, 1)
		p.pending.Done()
	}
}

// Stats contains counters describing the pool.
type Stats struct {
	Workers   int
	Queued    int
	Submitted int64
	Completed int64
	Failed    int64
}

// GetStats returns current pool statistics.
func (p *Pool) GetStats() Stats {
	return Stats{
		Workers:   p.workers,
		Queued:    p.queue.len(),
		Submitted: atomic.LoadInt64(&p.submitted),
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
	}
}

// taskQueue is an unbounded FIFO shared by the workers.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []releasetypes.UploadTask
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *taskQueue) push(task releasetypes.UploadTask) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, task)
	q.cond.Signal()
	return true
}

// pop blocks until a task is available. It returns false once the queue is
// closed and empty.
func (q *taskQueue) pop() (releasetypes.UploadTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return releasetypes.UploadTask{}, false
	}

	task := q.items[0]
	q.items[0] = releasetypes.UploadTask{}
	q.items = q.items[1:]
	return task, true
}

func (q *taskQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
