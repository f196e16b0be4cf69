package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ringforge/internal/profiling"
	"ringforge/internal/ring"
)

var (
	// ErrQueueClosed is returned when submitting to a closed Queue.
	ErrQueueClosed = errors.New("pipeline: queue closed")
	// ErrQueueFull is returned by Submit when the job buffer is full.
	ErrQueueFull = errors.New("pipeline: queue full")
)

// Result is delivered to a request's callback by Drain.
type Result struct {
	Key   string
	Token uint64
	Value any
	Err   error
}

// Callback receives a finished request on the goroutine that calls Drain.
type Callback func(Result)

type task struct {
	key   string
	token uint64
	run   func() (any, error)
	cb    Callback
}

type completed struct {
	res Result
	cb  Callback
}

// Queue runs requests on background workers and hands results back through
// a mutex-protected queue that the owner drains once per tick. Requests that
// share a key never run concurrently: a request for a key already in flight
// is parked (replacing any earlier parked one) and runs when the in-flight
// one finishes. Results older than the newest request for their key are
// dropped at Drain.
type Queue struct {
	Logger *slog.Logger

	jobs   chan task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	nextToken uint64
	latest    map[string]uint64
	inFlight  map[string]struct{}
	parked    map[string]task
	results   []completed
}

// NewQueue starts workers goroutines with a job buffer of queueSize.
func NewQueue(workers, queueSize int) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		Logger:   slog.Default(),
		jobs:     make(chan task, max(queueSize, 1)),
		ctx:      ctx,
		cancel:   cancel,
		latest:   make(map[string]uint64),
		inFlight: make(map[string]struct{}),
		parked:   make(map[string]task),
	}
	for i := 0; i < max(workers, 1); i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Submit queues run under key without blocking and returns the request's
// token. ErrQueueFull means the buffer is full and nothing was queued.
func (q *Queue) Submit(key string, run func() (any, error), cb Callback) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, dispatch, err := q.admit(key, run, cb)
	if err != nil || !dispatch {
		return t.token, err
	}
	select {
	case q.jobs <- t:
		return t.token, nil
	default:
		q.rollback(t)
		return 0, ErrQueueFull
	}
}

// SubmitWait is Submit that blocks for buffer space until ctx is done.
func (q *Queue) SubmitWait(ctx context.Context, key string, run func() (any, error), cb Callback) (uint64, error) {
	q.mu.Lock()
	t, dispatch, err := q.admit(key, run, cb)
	q.mu.Unlock()
	if err != nil || !dispatch {
		return t.token, err
	}
	select {
	case q.jobs <- t:
		return t.token, nil
	case <-ctx.Done():
		err = ctx.Err()
	case <-q.ctx.Done():
		err = ErrQueueClosed
	}
	q.mu.Lock()
	q.rollback(t)
	q.mu.Unlock()
	return 0, err
}

// admit registers a request. Called with mu held.
func (q *Queue) admit(key string, run func() (any, error), cb Callback) (task, bool, error) {
	if q.closed {
		return task{}, false, ErrQueueClosed
	}
	q.nextToken++
	t := task{key: key, token: q.nextToken, run: run, cb: cb}
	q.latest[key] = t.token
	if _, busy := q.inFlight[key]; busy {
		if old, ok := q.parked[key]; ok {
			q.Logger.Debug("replacing parked request", "key", key, "old", old.token, "new", t.token)
		}
		q.parked[key] = t
		return t, false, nil
	}
	q.inFlight[key] = struct{}{}
	return t, true, nil
}

// rollback undoes admit for a request that never reached a worker. A request
// parked behind it keeps the key in flight and is dispatched in its place.
// Called with mu held.
func (q *Queue) rollback(t task) {
	next, ok := q.parked[t.key]
	delete(q.parked, t.key)
	if !ok || q.closed {
		delete(q.inFlight, t.key)
		if q.latest[t.key] == t.token || q.closed {
			delete(q.latest, t.key)
		}
		return
	}
	q.wg.Add(1)
	go q.dispatch(next)
}

// dispatch blocks until t is buffered or the queue closes.
func (q *Queue) dispatch(t task) {
	defer q.wg.Done()
	select {
	case q.jobs <- t:
	case <-q.ctx.Done():
		q.mu.Lock()
		delete(q.inFlight, t.key)
		delete(q.latest, t.key)
		q.mu.Unlock()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case t := <-q.jobs:
			q.process(t)
		case <-q.ctx.Done():
			return
		}
	}
}

// process runs t and then any request parked behind it for the same key.
func (q *Queue) process(t task) {
	for {
		v, err := runSafely(t.run)
		q.mu.Lock()
		q.results = append(q.results, completed{
			res: Result{Key: t.key, Token: t.token, Value: v, Err: err},
			cb:  t.cb,
		})
		next, ok := q.parked[t.key]
		if ok {
			delete(q.parked, t.key)
		} else {
			delete(q.inFlight, t.key)
		}
		q.mu.Unlock()
		if !ok {
			return
		}
		t = next
	}
}

func runSafely(run func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline: request panicked: %v", r)
		}
	}()
	return run()
}

// Drain delivers up to limit finished results (all of them when limit <= 0)
// in completion order, dropping stale ones, and returns how many callbacks
// ran. It must be called from a single goroutine.
func (q *Queue) Drain(limit int) int {
	defer profiling.Track("pipeline.Drain")()
	q.mu.Lock()
	n := len(q.results)
	if limit > 0 {
		n = min(n, limit)
	}
	batch := make([]completed, 0, n)
	for _, c := range q.results[:n] {
		latest := q.latest[c.res.Key]
		if c.res.Token < latest {
			q.Logger.Debug("dropping stale result", "key", c.res.Key, "token", c.res.Token, "latest", latest)
			continue
		}
		if _, busy := q.inFlight[c.res.Key]; !busy {
			delete(q.latest, c.res.Key)
		}
		batch = append(batch, c)
	}
	q.results = append(q.results[:0], q.results[n:]...)
	q.mu.Unlock()

	for _, c := range batch {
		if c.res.Err != nil {
			q.Logger.Warn("request failed", "key", c.res.Key, "err", c.res.Err)
		}
		if c.cb != nil {
			c.cb(c.res)
		}
	}
	return len(batch)
}

// Ready returns the number of results waiting for Drain.
func (q *Queue) Ready() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.results)
}

// Pending returns the number of requests in flight or parked.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight) + len(q.parked)
}

// Close stops the workers. A request already running completes and its
// result stays drainable; buffered requests that never started are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.cancel()
	q.wg.Wait()
}

// RequestChunk generates chunk on the queue, keyed by the chunk ID, and
// calls cb from Drain.
func (g *Generator) RequestChunk(q *Queue, chunk ring.Chunk, cb func(*ChunkResult, error)) (uint64, error) {
	return q.Submit(chunk.ID.String(), func() (any, error) {
		return g.GenerateChunk(chunk)
	}, func(r Result) {
		res, _ := r.Value.(*ChunkResult)
		cb(res, r.Err)
	})
}
