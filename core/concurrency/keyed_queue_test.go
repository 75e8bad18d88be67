package concurrency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedQueue_PreservesOrderPerKey(t *testing.T) {
	q := NewKeyedQueue[string](context.Background(), KeyedQueueConfig{})

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, q.Submit("chat-1", func(ctx context.Context) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, q.Close(context.Background()))

	want := make([]int, 100)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestKeyedQueue_OneAtATimePerKey(t *testing.T) {
	q := NewKeyedQueue[string](context.Background(), KeyedQueueConfig{})

	var running, maxRunning int
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		require.NoError(t, q.Submit("chat-1", func(ctx context.Context) {
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
		}))
	}
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, 1, maxRunning)
}

func TestKeyedQueue_KeysRunConcurrently(t *testing.T) {
	q := NewKeyedQueue[string](context.Background(), KeyedQueueConfig{})

	release := make(chan struct{})
	started := make(chan string, 2)
	for _, key := range []string{"a", "b"} {
		key := key
		require.NoError(t, q.Submit(key, func(ctx context.Context) {
			started <- key
			<-release
		}))
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case k := <-started:
			seen[k] = true
		case <-time.After(2 * time.Second):
			t.Fatal("second key blocked behind first")
		}
	}
	close(release)
	require.NoError(t, q.Close(context.Background()))
	assert.Len(t, seen, 2)
}

func TestKeyedQueue_PanicIsRecovered(t *testing.T) {
	q := NewKeyedQueue[string](context.Background(), KeyedQueueConfig{})

	ran := make(chan struct{})
	require.NoError(t, q.Submit("k", func(ctx context.Context) { panic("boom") }))
	require.NoError(t, q.Submit("k", func(ctx context.Context) { close(ran) }))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task after panic never ran")
	}
	require.NoError(t, q.Close(context.Background()))

	completed, panicked := q.Stats()
	assert.Equal(t, int64(2), completed)
	assert.Equal(t, int64(1), panicked)
}

func TestKeyedQueue_WorkerExitsWhenIdle(t *testing.T) {
	q := NewKeyedQueue[string](context.Background(), KeyedQueueConfig{})

	done := make(chan struct{})
	require.NoError(t, q.Submit("k", func(ctx context.Context) { close(done) }))
	<-done

	assert.Eventually(t, func() bool { return q.ActiveKeys() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Close(context.Background()))
}

func TestKeyedQueue_MaxPending(t *testing.T) {
	q := NewKeyedQueue[string](context.Background(), KeyedQueueConfig{MaxPending: 1})

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, q.Submit("k", func(ctx context.Context) {
		close(started)
		<-block
	}))
	<-started

	require.NoError(t, q.Submit("k", func(ctx context.Context) {}))
	assert.Equal(t, 1, q.Pending("k"))

	err := q.Submit("k", func(ctx context.Context) {})
	assert.True(t, errors.Is(err, ErrMailboxFull))

	close(block)
	require.NoError(t, q.Close(context.Background()))
}

func TestKeyedQueue_CloseRejectsAndCancels(t *testing.T) {
	q := NewKeyedQueue[string](context.Background(), KeyedQueueConfig{})

	started := make(chan struct{})
	require.NoError(t, q.Submit("k", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, q.Submit("k", func(ctx context.Context) {}), ErrQueueClosed)
}
