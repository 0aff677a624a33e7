package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/frontdesk/internal/llm"
	"github.com/soyeahso/frontdesk/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestFIFOAndMinInterval(t *testing.T) {
	const gap = 40 * time.Millisecond
	q := New(Options{MinInterval: gap, JobTimeout: time.Second}, silentLog())
	defer q.Close()

	var mu sync.Mutex
	var order []string
	job := func(name string) Job {
		return func(ctx context.Context) (string, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return name, nil
		}
	}

	ctx := context.Background()
	chA := q.Submit(ctx, job("A"))
	chB := q.Submit(ctx, job("B"))
	chC := q.Submit(ctx, job("C"))

	results := []Result{<-chA, <-chB, <-chC}
	assert.Equal(t, []string{"A", "B", "C"}, order)

	for i, r := range results {
		require.True(t, r.OK(), "job %d: %v", i, r.Err)
		assert.False(t, r.DispatchedAt.IsZero())
	}
	for i := 1; i < len(results); i++ {
		delta := results[i].DispatchedAt.Sub(results[i-1].DispatchedAt)
		assert.GreaterOrEqual(t, delta, gap, "gap between job %d and %d", i-1, i)
	}
	assert.Equal(t, "B", results[1].Text)
}

func TestIntervalCountsFromPreviousDispatch(t *testing.T) {
	const gap = 30 * time.Millisecond
	q := New(Options{MinInterval: gap, JobTimeout: time.Second}, silentLog())
	defer q.Close()

	slow := func(ctx context.Context) (string, error) {
		time.Sleep(50 * time.Millisecond) // longer than the gap
		return "slow", nil
	}
	fast := func(ctx context.Context) (string, error) { return "fast", nil }

	r1 := q.Do(context.Background(), slow)
	r2 := q.Do(context.Background(), fast)
	require.True(t, r1.OK())
	require.True(t, r2.OK())
	assert.GreaterOrEqual(t, r2.DispatchedAt.Sub(r1.DispatchedAt), gap)
}

func TestProviderStatusClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusOK},
		{"rate limited", &llm.ProviderError{Provider: "claude", Code: 429}, StatusRateLimited},
		{"server error", &llm.ProviderError{Provider: "claude", Code: 503}, StatusUnavailable},
		{"wrapped 500", fmt.Errorf("call: %w", &llm.ProviderError{Code: 500}), StatusUnavailable},
		{"auth failure", &llm.ProviderError{Code: 401}, StatusUnavailable},
		{"deadline", context.DeadlineExceeded, StatusTimeout},
		{"transport deadline", &llm.ProviderError{Err: context.DeadlineExceeded}, StatusTimeout},
		{"canceled", context.Canceled, StatusCanceled},
		{"closed", ErrClosed, StatusCanceled},
		{"overloaded", ErrOverloaded, StatusOverloaded},
		{"network", errors.New("connection refused"), StatusUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDegradedResultsAreNotRetried(t *testing.T) {
	q := New(Options{JobTimeout: time.Second}, silentLog())
	defer q.Close()

	calls := 0
	r := q.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", &llm.ProviderError{Provider: "openai", Code: 429, Message: "slow down"}
	})
	assert.Equal(t, StatusRateLimited, r.Status)
	assert.Equal(t, 1, calls)
}

func TestJobTimeoutEnforced(t *testing.T) {
	q := New(Options{JobTimeout: 30 * time.Millisecond}, silentLog())
	defer q.Close()

	r := q.Do(context.Background(), func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	assert.Equal(t, StatusTimeout, r.Status)
}

func TestStalledJobIsAbandoned(t *testing.T) {
	q := New(Options{JobTimeout: 30 * time.Millisecond}, silentLog())
	defer q.Close()

	block := make(chan struct{})
	defer close(block)

	start := time.Now()
	r := q.Do(context.Background(), func(ctx context.Context) (string, error) {
		<-block // ignores ctx entirely
		return "late", nil
	})
	assert.Equal(t, StatusTimeout, r.Status)
	assert.Less(t, time.Since(start), time.Second)

	// the worker is free for the next job
	r = q.Do(context.Background(), func(ctx context.Context) (string, error) { return "next", nil })
	assert.True(t, r.OK())
	assert.Equal(t, "next", r.Text)
}

func TestCanceledWhileQueuedIsSkipped(t *testing.T) {
	q := New(Options{MinInterval: 50 * time.Millisecond, JobTimeout: time.Second}, silentLog())
	defer q.Close()

	first := q.Submit(context.Background(), func(ctx context.Context) (string, error) { return "1", nil })

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	second := q.Submit(ctx, func(ctx context.Context) (string, error) {
		ran = true
		return "2", nil
	})
	cancel()

	require.True(t, (<-first).OK())
	r := <-second
	assert.Equal(t, StatusCanceled, r.Status)
	assert.True(t, r.DispatchedAt.IsZero())
	assert.False(t, ran)
}

func TestQueueFull(t *testing.T) {
	q := New(Options{QueueSize: 1, JobTimeout: time.Second}, silentLog())
	defer q.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	busy := q.Submit(context.Background(), func(ctx context.Context) (string, error) {
		close(started)
		<-release
		return "busy", nil
	})
	<-started

	waiting := q.Submit(context.Background(), func(ctx context.Context) (string, error) { return "w", nil })
	overflow := <-q.Submit(context.Background(), func(ctx context.Context) (string, error) { return "x", nil })
	assert.Equal(t, StatusOverloaded, overflow.Status)
	assert.ErrorIs(t, overflow.Err, ErrOverloaded)

	close(release)
	assert.True(t, (<-busy).OK())
	assert.True(t, (<-waiting).OK())
}

func TestCloseDrainsAsCanceled(t *testing.T) {
	q := New(Options{MinInterval: time.Hour, JobTimeout: time.Second}, silentLog())

	first := q.Submit(context.Background(), func(ctx context.Context) (string, error) { return "1", nil })
	require.True(t, (<-first).OK())

	// waits an hour for its slot; Close must not
	pending := q.Submit(context.Background(), func(ctx context.Context) (string, error) { return "2", nil })

	done := make(chan struct{})
	go func() {
		q.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked")
	}

	r := <-pending
	assert.Equal(t, StatusCanceled, r.Status)

	after := <-q.Submit(context.Background(), func(ctx context.Context) (string, error) { return "3", nil })
	assert.ErrorIs(t, after.Err, ErrClosed)
	q.Close() // idempotent
}

func TestDoReturnsOnCallerCancel(t *testing.T) {
	q := New(Options{MinInterval: time.Hour, JobTimeout: time.Second}, silentLog())
	defer q.Close()

	require.True(t, q.Do(context.Background(), func(ctx context.Context) (string, error) { return "", nil }).OK())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	r := q.Do(ctx, func(ctx context.Context) (string, error) { return "never", nil })
	assert.Equal(t, StatusCanceled, r.Status)
}

func TestObserveSeesEveryResult(t *testing.T) {
	var mu sync.Mutex
	seen := map[Status]int{}
	q := New(Options{JobTimeout: time.Second, Observe: func(r Result) {
		mu.Lock()
		seen[r.Status]++
		mu.Unlock()
	}}, silentLog())
	defer q.Close()

	q.Do(context.Background(), func(ctx context.Context) (string, error) { return "ok", nil })
	q.Do(context.Background(), func(ctx context.Context) (string, error) {
		return "", &llm.ProviderError{Code: 502}
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen[StatusOK])
	assert.Equal(t, 1, seen[StatusUnavailable])
}
