// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package gang

import (
	"context"
	"fmt"

	"github.com/jontk/gang-scheduler/internal/lifecycle"
	schederr "github.com/jontk/gang-scheduler/pkg/errors"
	"github.com/jontk/gang-scheduler/pkg/logging"
	"github.com/jontk/gang-scheduler/pkg/metrics"
)

// Scheduler is a gang time-slicing scheduler. It holds no scheduling logic
// of its own; construction wires the collaborator interfaces into an
// internal engine (internal/lifecycle) and every exported method delegates
// to it under its data lock.
type Scheduler struct {
	engine *lifecycle.Engine
	logger logging.Logger
}

// New builds a Scheduler wired to the given collaborators. Call Init
// before using it; call Fini to shut it down.
func New(partitions PartitionSource, jobs JobSource, nodes NodeInventory, allocator CoreAllocator, signaler Signaler, opts ...Option) (*Scheduler, error) {
	built := &buildOptions{
		cfg: lifecycle.Config{
			Granularity:        Node,
			TimeSliceSeconds:   30,
			FastSchedule:       false,
			DefaultJobListSize: 64,
		},
		logger:  logging.NoOpLogger{},
		metrics: metrics.NoOpRecorder(),
	}
	for _, opt := range opts {
		if err := opt(built); err != nil {
			return nil, schederr.Wrap(schederr.InvalidConfiguration, "applying scheduler option", err)
		}
	}
	if built.cfg.TimeSliceSeconds <= 0 {
		return nil, schederr.New(schederr.InvalidConfiguration, fmt.Sprintf("time_slice_seconds must be positive, got %d", built.cfg.TimeSliceSeconds))
	}

	engine := lifecycle.New(built.cfg, partitions, jobs, nodes, allocator, signaler, built.logger, built.metrics)
	return &Scheduler{engine: engine, logger: built.logger}, nil
}

// Init reads the partition registry and node inventory, absorbs
// already-running jobs via Scan, and starts the background time-slicer.
func (s *Scheduler) Init(ctx context.Context) error {
	return s.engine.Init(ctx)
}

// Fini signals shutdown, cooperatively cancels the time-slicer (bounded
// retry), and destroys all partition state.
func (s *Scheduler) Fini(ctx context.Context) error {
	return s.engine.Fini(ctx)
}

// JobStart admits a newly started job into its named partition. A
// partition miss is logged and the job runs unmanaged; it is not an error.
func (s *Scheduler) JobStart(ctx context.Context, jobID uint32, partition string, allocIndex int, nodeBitmap []bool) error {
	return s.engine.JobStart(ctx, jobID, partition, allocIndex, nodeBitmap)
}

// JobEnd removes a job from its partition and rebuilds every partition's
// active row.
func (s *Scheduler) JobEnd(ctx context.Context, jobID uint32) error {
	return s.engine.JobEnd(ctx, jobID)
}

// Scan reconciles internal state against the external job database:
// absorbing untracked jobs, dropping jobs whose external state is
// terminal, and rebuilding every active row.
func (s *Scheduler) Scan(ctx context.Context) error {
	return s.engine.Scan(ctx)
}

// Reconfig rebuilds the partition list from the registry, transferring
// jobs whose partition survived and resuming jobs whose partition did not,
// then scans to catch stragglers.
func (s *Scheduler) Reconfig(ctx context.Context) error {
	return s.engine.Reconfig(ctx)
}

// Partitions returns a read-only snapshot of every partition's current
// state, for status reporting and the admin API.
func (s *Scheduler) Partitions() []PartitionView {
	return s.engine.Snapshot()
}
