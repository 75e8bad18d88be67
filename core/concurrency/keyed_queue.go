package concurrency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	ErrQueueClosed = errors.New("keyed queue closed")
	ErrMailboxFull = errors.New("mailbox full")
)

// Task is one unit of work submitted under a key.
type Task func(ctx context.Context)

// KeyedQueueConfig configures a KeyedQueue.
type KeyedQueueConfig struct {
	// MaxPending caps queued tasks per key. Zero means unbounded.
	MaxPending int

	Logger *slog.Logger
}

// KeyedQueue runs tasks strictly one at a time and in submission order per
// key, while tasks for different keys run concurrently. A worker goroutine
// exists only while its key has queued work.
type KeyedQueue[K comparable] struct {
	mu        sync.Mutex
	mailboxes map[K]*mailbox
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	maxPending int
	logger     *slog.Logger

	completed atomic.Int64
	panicked  atomic.Int64
}

type mailbox struct {
	tasks []Task
}

// NewKeyedQueue creates a queue whose tasks run under a context derived from
// parent. Cancelling parent cancels in-flight tasks.
func NewKeyedQueue[K comparable](parent context.Context, cfg KeyedQueueConfig) *KeyedQueue[K] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	return &KeyedQueue[K]{
		mailboxes:  make(map[K]*mailbox),
		ctx:        ctx,
		cancel:     cancel,
		maxPending: cfg.MaxPending,
		logger:     cfg.Logger,
	}
}

// Submit enqueues task behind any work already queued for key.
func (q *KeyedQueue[K]) Submit(key K, task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	mb, running := q.mailboxes[key]
	if !running {
		mb = &mailbox{}
		q.mailboxes[key] = mb
	}
	if q.maxPending > 0 && len(mb.tasks) >= q.maxPending {
		return fmt.Errorf("%w: key %v has %d queued", ErrMailboxFull, key, len(mb.tasks))
	}
	mb.tasks = append(mb.tasks, task)

	if !running {
		q.wg.Add(1)
		go q.drain(key, mb)
	}
	return nil
}

func (q *KeyedQueue[K]) drain(key K, mb *mailbox) {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(mb.tasks) == 0 {
			delete(q.mailboxes, key)
			q.mu.Unlock()
			return
		}
		task := mb.tasks[0]
		mb.tasks[0] = nil
		mb.tasks = mb.tasks[1:]
		q.mu.Unlock()

		q.run(key, task)
	}
}

func (q *KeyedQueue[K]) run(key K, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			q.logger.Error("task panicked",
				"key", fmt.Sprint(key),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
		q.completed.Add(1)
	}()
	task(q.ctx)
}

// Pending returns the number of tasks queued for key, excluding a task that
// is already running.
func (q *KeyedQueue[K]) Pending(key K) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if mb, ok := q.mailboxes[key]; ok {
		return len(mb.tasks)
	}
	return 0
}

// ActiveKeys returns the number of keys that currently have a worker.
func (q *KeyedQueue[K]) ActiveKeys() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.mailboxes)
}

// Stats returns completed and panicked task counts.
func (q *KeyedQueue[K]) Stats() (completed, panicked int64) {
	return q.completed.Load(), q.panicked.Load()
}

// Close stops accepting tasks and waits for queued work to finish. If ctx
// ends first, in-flight tasks are cancelled and ctx.Err() is returned.
func (q *KeyedQueue[K]) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}
