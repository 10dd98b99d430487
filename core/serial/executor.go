// Package serial runs tasks so that tasks sharing a key execute one at a
// time in submission order while tasks with different keys run in parallel.
package serial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/nstonic/Fish-bot/core/logger"
)

// ErrClosed is returned by Submit after Close has been called.
var ErrClosed = errors.New("serial: executor closed")

// Task is a unit of work bound to a key.
type Task func(ctx context.Context)

type queued struct {
	ctx  context.Context
	task Task
}

// Executor shards keys over a fixed set of workers. Each worker owns a FIFO
// queue, so ordering per key holds as long as a key always maps to the same
// shard.
type Executor struct {
	mu     sync.RWMutex
	closed bool
	shards []chan queued
	wg     sync.WaitGroup
}

// Options sizes an Executor; zero values select defaults.
type Options struct {
	Shards    int
	QueueSize int
}

// New starts an executor with opts.Shards workers.
func New(opts Options) *Executor {
	if opts.Shards <= 0 {
		opts.Shards = 8
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	e := &Executor{shards: make([]chan queued, opts.Shards)}
	e.wg.Add(opts.Shards)
	for i := range e.shards {
		ch := make(chan queued, opts.QueueSize)
		e.shards[i] = ch
		go e.work(i, ch)
	}
	return e
}

// Submit queues task behind earlier tasks with the same key. It blocks while
// the shard queue is full and returns early if ctx ends first.
func (e *Executor) Submit(ctx context.Context, key int64, task Task) error {
	if task == nil {
		return errors.New("serial: nil task")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	select {
	case e.shards[e.shardOf(key)] <- queued{ctx: ctx, task: task}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, ch := range e.shards {
		close(ch)
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Executor) shardOf(key int64) int {
	n := int64(len(e.shards))
	idx := key % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

func (e *Executor) work(shard int, ch <-chan queued) {
	defer e.wg.Done()
	for q := range ch {
		run(shard, q)
	}
}

func run(shard int, q queued) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(q.ctx, logger.CompExecutor, "executor.panic",
				slog.Int("shard", shard),
				slog.String("cause", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	if q.ctx.Err() != nil {
		return
	}
	q.task(q.ctx)
}
