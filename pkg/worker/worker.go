// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package worker generalizes the ticker+context+WaitGroup background
// worker lifecycle (Start/Stop) into a reusable periodic-task runner, with
// two cancellation checkpoints per tick as the concurrency design requires.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jontk/gang-scheduler/pkg/logging"
)

// Task is the periodic work a Worker drives. It receives the tick's
// context and is responsible for its own locking against shared state.
type Task func(ctx context.Context)

// Worker runs a Task on a fixed interval until stopped. Its running and
// shutdown flags are guarded by a lock distinct from whatever lock Task
// itself takes — the two must never nest, so a slow or stuck Task can
// never deadlock Stop.
type Worker struct {
	task     Task
	interval time.Duration
	logger   logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	lifecycleMu sync.Mutex
	running     bool
}

// New creates a Worker that calls task every interval once started.
func New(task Task, interval time.Duration, logger logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Worker{task: task, interval: interval, logger: logger}
}

// Start begins the periodic loop. A no-op if already running.
func (w *Worker) Start() {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	if w.running {
		return
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.running = true

	w.wg.Add(1)
	go w.loop()
}

func (w *Worker) loop() {
	defer w.wg.Done()

	for {
		// Cancellation checkpoint before the tick's work.
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.task(w.ctx)

		// Cancellation checkpoint before sleeping.
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		// Cancellation checkpoint after sleeping (or immediate exit).
		select {
		case <-time.After(w.interval):
		case <-w.ctx.Done():
			return
		}
	}
}

// Stop requests cancellation and waits for the loop to exit, retrying a
// bounded number of times with a short sleep between attempts. If the
// worker still has not exited after maxAttempts, Stop returns an error;
// the caller is expected to log it and proceed with teardown rather than
// risk a deadlock.
func (w *Worker) Stop(maxAttempts int, retryDelay time.Duration) error {
	w.lifecycleMu.Lock()
	if !w.running {
		w.lifecycleMu.Unlock()
		return nil
	}
	cancel := w.cancel
	w.lifecycleMu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-done:
			w.lifecycleMu.Lock()
			w.running = false
			w.lifecycleMu.Unlock()
			return nil
		case <-time.After(retryDelay):
		}
	}

	select {
	case <-done:
		w.lifecycleMu.Lock()
		w.running = false
		w.lifecycleMu.Unlock()
		return nil
	default:
		return fmt.Errorf("worker did not exit after %d attempts", maxAttempts)
	}
}

// Running reports whether the loop is currently active.
func (w *Worker) Running() bool {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()
	return w.running
}
