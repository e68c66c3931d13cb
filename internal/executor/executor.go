// Package executor runs fire-and-forget tasks off the frame loop.
//
// A task reports back only by sending on a bus sender it captured. Two
// implementations share the Executor interface: Pool runs tasks on their own
// goroutines behind a concurrency bound, Cooperative runs them one at a time
// on a single goroutine in submission order. The choice is made once at
// startup.
package executor

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Task is a unit of work. ctx carries the per-task deadline.
type Task func(ctx context.Context)

// Executor schedules tasks without blocking the caller.
type Executor interface {
	// Spawn schedules task. It never blocks and never reports a result.
	Spawn(task Task)
	// Close stops accepting tasks. Tasks already scheduled still run.
	Close()
	// Wait blocks until every scheduled task has finished.
	Wait()
}

// Mode selects an implementation.
type Mode string

const (
	ModeAuto        Mode = "auto"
	ModePool        Mode = "pool"
	ModeCooperative Mode = "cooperative"
)

// DefaultWorkers bounds the pool when no explicit limit is configured.
const DefaultWorkers = 8

// Options configure either implementation.
type Options struct {
	// Workers bounds concurrently running tasks in a Pool.
	Workers int
	// Timeout is the per-task deadline. Zero means none.
	Timeout time.Duration
	Logger  log.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	return o
}

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAuto, ModePool, ModeCooperative:
		return m, nil
	case "":
		return ModeAuto, nil
	}
	return "", fmt.Errorf("unknown executor mode %q (want auto, pool or cooperative)", s)
}

// New builds the executor for mode. Auto picks a pool when more than one
// CPU is available and the cooperative queue otherwise.
func New(mode Mode, opts Options) (Executor, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	if mode == ModeAuto {
		mode = ModeCooperative
		if runtime.NumCPU() > 1 {
			mode = ModePool
		}
	}

	opts = opts.withDefaults()
	_ = level.Debug(opts.Logger).Log("msg", "starting executor", "mode", mode, "workers", opts.Workers, "timeout", opts.Timeout)

	if mode == ModePool {
		return NewPool(opts), nil
	}
	return NewCooperative(opts), nil
}

// run executes task under its deadline and recovers a panic. A panicking
// task sends nothing, so whatever it was fetching stays unanswered.
func run(task Task, timeout time.Duration, logger log.Logger) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			_ = level.Error(logger).Log("msg", "task panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	task(ctx)
}
