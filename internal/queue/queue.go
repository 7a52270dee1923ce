package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrStopped = errors.New("queue: stopped")

const (
	DefaultPriority      = 5
	defaultBatchInterval = 300 * time.Millisecond
	defaultMaxRetries    = 3
	defaultRetryDelay    = time.Second
)

// RequestFunc performs the actual remote call. It may be invoked more
// than once when the queue retries, so it must be safe to repeat.
type RequestFunc func(ctx context.Context) (any, error)

// Result settles a request: exactly one of Value or Err is meaningful.
type Result struct {
	Value any
	Err   error
}

type Request struct {
	// ID is the coalescing key. Enqueuing under an id that is already
	// queued but not yet dispatched replaces the older entry; the older
	// caller's result channel is abandoned and never settles.
	ID string
	// Batch marks the request deferrable: instead of waking the drain
	// immediately, the queue waits for a quiet BatchInterval so nearby
	// edits land in the same pass. Requests are still dispatched one by
	// one; batching affects timing only.
	Batch     bool
	Priority  int
	Retries   int
	OnSuccess func(any)
	OnError   func(error)
}

type entry struct {
	id        string
	fn        RequestFunc
	batch     bool
	priority  int
	retries   int
	seq       uint64
	onSuccess func(any)
	onError   func(error)
	result    chan Result
}

type Options struct {
	BatchInterval time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
}

// Queue dispatches remote operations serially from a single goroutine,
// ordered by priority with same-id coalescing and silent retry.
type Queue struct {
	mu            sync.Mutex
	entries       []*entry
	seq           uint64
	batchTimer    *time.Timer
	batchInterval time.Duration
	maxRetries    int
	retryDelay    time.Duration
	wakeup        chan struct{}
	stopCh        chan struct{}
	doneCh        chan struct{}
	started       bool
	stopped       bool
	ctx           context.Context
	cancel        context.CancelFunc
}

func New() *Queue {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Queue {
	if opts.BatchInterval <= 0 {
		opts.BatchInterval = defaultBatchInterval
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		entries:       make([]*entry, 0),
		batchInterval: opts.BatchInterval,
		maxRetries:    opts.MaxRetries,
		retryDelay:    opts.RetryDelay,
		wakeup:        make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	go q.loop()
}

// Stop drains no further; the in-flight request's context is canceled
// and the drain goroutine is waited for. Queued entries never settle.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	if q.batchTimer != nil {
		q.batchTimer.Stop()
	}
	close(q.stopCh)
	q.cancel()
	q.mu.Unlock()
	<-q.doneCh
}

// Enqueue adds or replaces a request and returns its settlement channel.
// The channel receives exactly one Result, after OnSuccess/OnError has
// run, once the request finally succeeds or exhausts its retries. A
// replaced entry's channel receives nothing at all.
func (q *Queue) Enqueue(fn RequestFunc, req Request) <-chan Result {
	result := make(chan Result, 1)

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		result <- Result{Err: ErrStopped}
		return result
	}

	q.seq++
	e := &entry{
		id:        req.ID,
		fn:        fn,
		batch:     req.Batch,
		priority:  req.Priority,
		retries:   req.Retries,
		seq:       q.seq,
		onSuccess: req.OnSuccess,
		onError:   req.OnError,
		result:    result,
	}
	if e.id == "" {
		e.id = fmt.Sprintf("req-%d", e.seq)
	}
	if e.priority == 0 {
		e.priority = DefaultPriority
	}

	if i := q.indexOf(e.id); i >= 0 {
		// Newer request wins; keep the old slot in the ordering.
		e.seq = q.entries[i].seq
		q.entries[i] = e
	} else {
		q.entries = append(q.entries, e)
	}

	if e.batch {
		q.armBatchTimerLocked()
		q.mu.Unlock()
	} else {
		q.mu.Unlock()
		q.signalWakeup()
	}
	return result
}

// Cancel drops an undispatched entry. Its channel never settles.
func (q *Queue) Cancel(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.indexOf(id); i >= 0 {
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
	}
}

func (q *Queue) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = q.entries[:0]
}

// Len reports the number of queued, not-yet-dispatched entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) indexOf(id string) int {
	for i, e := range q.entries {
		if e.id == id {
			return i
		}
	}
	return -1
}

func (q *Queue) armBatchTimerLocked() {
	if q.batchTimer != nil {
		q.batchTimer.Stop()
	}
	q.batchTimer = time.AfterFunc(q.batchInterval, q.signalWakeup)
}

func (q *Queue) signalWakeup() {
	select {
	case q.wakeup <- struct{}{}:
	default:
	}
}

func (q *Queue) loop() {
	defer close(q.doneCh)
	for {
		select {
		case <-q.wakeup:
		case <-q.stopCh:
			return
		}
		// Drain until empty, re-checking after every dispatch so entries
		// that arrive mid-pass (retries included) are picked up without
		// waiting for another trigger.
		for {
			select {
			case <-q.stopCh:
				return
			default:
			}
			e := q.next()
			if e == nil {
				break
			}
			q.dispatch(e)
		}
	}
}

// next removes and returns the best queued entry: non-batchable before
// batchable, then ascending priority, then insertion order.
func (q *Queue) next() *entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	best := -1
	for i, e := range q.entries {
		if best < 0 || entryLess(e, q.entries[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	e := q.entries[best]
	q.entries = append(q.entries[:best], q.entries[best+1:]...)
	return e
}

func entryLess(a, b *entry) bool {
	if a.batch != b.batch {
		return !a.batch
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (q *Queue) dispatch(e *entry) {
	value, err := e.fn(q.ctx)
	if err == nil {
		if e.onSuccess != nil {
			e.onSuccess(value)
		}
		e.result <- Result{Value: value}
		return
	}

	if e.retries < q.maxRetries {
		// Silent retry: the caller's channel stays pending. Linear-ish
		// backoff, then back into the queue with the retry count bumped.
		e.retries++
		delay := q.retryDelay * time.Duration(e.retries)
		time.AfterFunc(delay, func() { q.readd(e) })
		return
	}

	if e.onError != nil {
		e.onError(err)
	}
	e.result <- Result{Err: err}
}

func (q *Queue) readd(e *entry) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.seq++
	e.seq = q.seq
	if i := q.indexOf(e.id); i >= 0 {
		// A newer request took the id while the retry was waiting; the
		// newer one wins and this attempt is dropped.
		q.mu.Unlock()
		return
	}
	q.entries = append(q.entries, e)
	if e.batch {
		q.armBatchTimerLocked()
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()
	q.signalWakeup()
}
