// Package throttle serializes calls to the language-model provider through a
// single FIFO worker that keeps a minimum gap between dispatches.
package throttle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/soyeahso/frontdesk/internal/logging"
)

// ErrClosed is reported for jobs submitted after, or drained by, Close.
var ErrClosed = errors.New("throttle: queue closed")

// ErrOverloaded is reported when the queue is full.
var ErrOverloaded = errors.New("throttle: queue full")

// Status classifies a job outcome. Every status other than StatusOK is a
// degraded result the caller must fall back from.
type Status string

const (
	StatusOK          Status = "ok"
	StatusRateLimited Status = "rate_limited"
	StatusUnavailable Status = "unavailable"
	StatusTimeout     Status = "timeout"
	StatusCanceled    Status = "canceled"
	StatusOverloaded  Status = "overloaded"
)

// Job is one provider call. It must honor ctx.
type Job func(ctx context.Context) (string, error)

// Result is the settled outcome of a job.
type Result struct {
	Status       Status
	Text         string
	Err          error
	EnqueuedAt   time.Time
	DispatchedAt time.Time // zero if the job never ran
	Duration     time.Duration
}

// OK reports whether the job succeeded.
func (r Result) OK() bool { return r.Status == StatusOK }

// Options configures a Queue.
type Options struct {
	MinInterval time.Duration // minimum gap between dispatches
	JobTimeout  time.Duration // deadline applied to every job
	QueueSize   int
	// Observe, if set, is called with every settled result.
	Observe func(Result)
}

// Queue is a degree-1 scheduler with a minimum-interval policy.
type Queue struct {
	opts  Options
	jobs  chan *pending
	log   *logging.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu     sync.RWMutex
	closed bool

	stop chan struct{}
	done chan struct{}
}

type pending struct {
	ctx        context.Context
	job        Job
	enqueuedAt time.Time
	result     chan Result
}

// New starts a queue and its worker.
func New(opts Options, log *logging.Logger) *Queue {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 8 * time.Second
	}
	q := &Queue{
		opts:  opts,
		jobs:  make(chan *pending, opts.QueueSize),
		log:   log.Sub("throttle"),
		now:   time.Now,
		sleep: sleepCtx,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

// Submit enqueues a job and returns a channel that receives exactly one Result.
func (q *Queue) Submit(ctx context.Context, job Job) <-chan Result {
	p := &pending{ctx: ctx, job: job, enqueuedAt: q.now(), result: make(chan Result, 1)}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		p.settle(Result{Status: StatusCanceled, Err: ErrClosed, EnqueuedAt: p.enqueuedAt}, q.opts.Observe)
		return p.result
	}
	select {
	case q.jobs <- p:
	default:
		q.log.Warn().Int("capacity", q.opts.QueueSize).Msg("provider queue full, rejecting job")
		p.settle(Result{Status: StatusOverloaded, Err: ErrOverloaded, EnqueuedAt: p.enqueuedAt}, q.opts.Observe)
	}
	return p.result
}

// Do submits a job and waits for its result or for ctx to end.
func (q *Queue) Do(ctx context.Context, job Job) Result {
	ch := q.Submit(ctx, job)
	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return Result{Status: StatusCanceled, Err: ctx.Err()}
	}
}

// Len returns the number of jobs waiting for dispatch.
func (q *Queue) Len() int { return len(q.jobs) }

// Close stops the worker; jobs still waiting settle as canceled.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.stop)
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	var last time.Time

	for {
		// a closed queue never dispatches again, even with jobs ready
		select {
		case <-q.stop:
			q.drain()
			return
		default:
		}

		select {
		case <-q.stop:
			q.drain()
			return
		case p := <-q.jobs:
			if err := p.ctx.Err(); err != nil {
				// caller gave up while queued; no dispatch slot consumed
				p.settle(Result{Status: StatusCanceled, Err: err, EnqueuedAt: p.enqueuedAt}, q.opts.Observe)
				continue
			}
			if !last.IsZero() && q.opts.MinInterval > 0 {
				wait := q.opts.MinInterval - q.now().Sub(last)
				if wait > 0 {
					if err := q.sleepOrStop(p.ctx, wait); err != nil {
						p.settle(Result{Status: StatusCanceled, Err: err, EnqueuedAt: p.enqueuedAt}, q.opts.Observe)
						if errors.Is(err, ErrClosed) {
							q.drain()
							return
						}
						continue
					}
				}
			}
			last = q.now()
			p.settle(q.dispatch(p, last), q.opts.Observe)
		}
	}
}

// sleepOrStop waits d, returning early if the job's caller or the queue quits.
func (q *Queue) sleepOrStop(ctx context.Context, d time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-q.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	err := q.sleep(ctx, d)
	select {
	case <-q.stop:
		return ErrClosed
	default:
	}
	return err
}

// dispatch runs the job under the job timeout. A job that ignores its
// context is abandoned once the deadline passes.
func (q *Queue) dispatch(p *pending, at time.Time) Result {
	ctx, cancel := context.WithTimeout(p.ctx, q.opts.JobTimeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	out := make(chan outcome, 1)
	go func() {
		text, err := p.job(ctx)
		out <- outcome{text, err}
	}()

	res := Result{EnqueuedAt: p.enqueuedAt, DispatchedAt: at}
	select {
	case o := <-out:
		res.Text, res.Err = o.text, o.err
	case <-ctx.Done():
		res.Err = ctx.Err()
	}
	res.Duration = q.now().Sub(at)
	res.Status = Classify(res.Err)
	if res.Status != StatusOK {
		q.log.Debug().Err(res.Err).Str("status", string(res.Status)).Dur("took", res.Duration).Msg("provider call degraded")
	}
	return res
}

func (q *Queue) drain() {
	for {
		select {
		case p := <-q.jobs:
			p.settle(Result{Status: StatusCanceled, Err: ErrClosed, EnqueuedAt: p.enqueuedAt}, q.opts.Observe)
		default:
			return
		}
	}
}

func (p *pending) settle(r Result, observe func(Result)) {
	if observe != nil {
		observe(r)
	}
	p.result <- r
}

// statusCoder is implemented by provider errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// Classify maps a job error onto a Status.
func Classify(err error) Status {
	if err == nil {
		return StatusOK
	}
	if errors.Is(err, ErrOverloaded) {
		return StatusOverloaded
	}
	if errors.Is(err, ErrClosed) {
		return StatusCanceled
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		switch code := sc.StatusCode(); {
		case code == 429:
			return StatusRateLimited
		case code >= 500:
			return StatusUnavailable
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}
	if errors.Is(err, context.Canceled) {
		return StatusCanceled
	}
	return StatusUnavailable
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
