package serial

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameKeyRunsInOrder(t *testing.T) {
	e := New(Options{Shards: 4, QueueSize: 16})

	var mu sync.Mutex
	var got []int
	for i := 0; i < 20; i++ {
		i := i
		require.NoError(t, e.Submit(context.Background(), 42, func(context.Context) {
			if i == 0 {
				time.Sleep(20 * time.Millisecond)
			}
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	e.Close()

	require.Len(t, got, 20)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestDifferentKeysRunConcurrently(t *testing.T) {
	e := New(Options{Shards: 2})
	defer e.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, e.Submit(context.Background(), 0, func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	done := make(chan struct{})
	require.NoError(t, e.Submit(context.Background(), 1, func(context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task on another shard was blocked by a slow key")
	}
	close(release)
}

func TestNegativeKeysMapToValidShard(t *testing.T) {
	e := New(Options{Shards: 3})
	var ran atomic.Int32
	require.NoError(t, e.Submit(context.Background(), -1001234567890, func(context.Context) { ran.Add(1) }))
	e.Close()
	assert.EqualValues(t, 1, ran.Load())
}

func TestPanicDoesNotKillShard(t *testing.T) {
	e := New(Options{Shards: 1})
	var ran atomic.Bool
	require.NoError(t, e.Submit(context.Background(), 5, func(context.Context) { panic("boom") }))
	require.NoError(t, e.Submit(context.Background(), 5, func(context.Context) { ran.Store(true) }))
	e.Close()
	assert.True(t, ran.Load())
}

func TestSubmitAfterClose(t *testing.T) {
	e := New(Options{})
	e.Close()
	e.Close()
	assert.ErrorIs(t, e.Submit(context.Background(), 1, func(context.Context) {}), ErrClosed)
}
