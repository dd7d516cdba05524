// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package slicer drives the background time-slicer (component G): once per
// time slice, cycle every partition that still has unseated demand.
package slicer

import (
	"context"
	"sync"
	"time"

	"github.com/jontk/gang-scheduler/internal/collab"
	"github.com/jontk/gang-scheduler/internal/domain"
	"github.com/jontk/gang-scheduler/internal/physres"
	"github.com/jontk/gang-scheduler/internal/rowupdater"
	"github.com/jontk/gang-scheduler/pkg/logging"
	"github.com/jontk/gang-scheduler/pkg/metrics"
	"github.com/jontk/gang-scheduler/pkg/worker"
)

// State is the shared, mutation-protected view of the cluster the slicer
// ticks against. Callers (the scheduler) own DataMu and must take it for
// any mutation outside a tick — init, reconfig, job start/end, scan.
type State struct {
	DataMu     *sync.Mutex
	Partitions *[]*domain.Partition
	Phys       **physres.Table
	Signaler   collab.Signaler
}

// Slicer wraps a worker.Worker configured to run one time-slice tick.
type Slicer struct {
	state   *State
	logger  logging.Logger
	metrics *metrics.Recorder
	inner   *worker.Worker
}

// New builds a Slicer that ticks every interval once Start is called.
func New(state *State, interval time.Duration, logger logging.Logger, rec *metrics.Recorder) *Slicer {
	s := &Slicer{state: state, logger: logger, metrics: rec}
	s.inner = worker.New(s.tick, interval, logger)
	return s
}

// Start begins the periodic loop.
func (s *Slicer) Start() { s.inner.Start() }

// Stop requests cancellation, retrying cooperatively before giving up.
func (s *Slicer) Stop(maxAttempts int, retryDelay time.Duration) error {
	return s.inner.Stop(maxAttempts, retryDelay)
}

// Running reports whether the loop is active.
func (s *Slicer) Running() bool { return s.inner.Running() }

// tick is the single time-slice body: acquire the data lock, determine
// partition priority order, cycle any partition whose active row has not
// seated its full demand, then release the lock. The worker's two
// cancellation checkpoints (before and after sleeping) bound how long a
// slow tick can block shutdown; tick itself never blocks on I/O.
func (s *Slicer) tick(ctx context.Context) {
	s.state.DataMu.Lock()
	defer s.state.DataMu.Unlock()

	partitions := *s.state.Partitions
	phys := *s.state.Phys
	if phys == nil || len(partitions) == 0 {
		return
	}

	logging.LogTick(s.logger, len(partitions))
	s.metrics.RecordTick(len(partitions))

	sorted := rowupdater.SortedByPriority(partitions)
	for _, q := range sorted {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if q.Active.Count < q.TotalDemand() {
			rowupdater.Cycle(ctx, q, phys, partitions, s.state.Signaler, s.logger, s.metrics)
		}
	}
}
