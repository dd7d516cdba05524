// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle implements the controller-facing hooks (component H):
// init, fini, reconfig, job_start, job_end, and scan. Every hook acquires
// the engine's data lock around all state mutation.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jontk/gang-scheduler/internal/collab"
	"github.com/jontk/gang-scheduler/internal/domain"
	"github.com/jontk/gang-scheduler/internal/engineerr"
	"github.com/jontk/gang-scheduler/internal/fit"
	"github.com/jontk/gang-scheduler/internal/granularity"
	"github.com/jontk/gang-scheduler/internal/physres"
	"github.com/jontk/gang-scheduler/internal/resmap"
	"github.com/jontk/gang-scheduler/internal/rowupdater"
	"github.com/jontk/gang-scheduler/internal/shadow"
	"github.com/jontk/gang-scheduler/internal/slicer"
	"github.com/jontk/gang-scheduler/internal/topology"
	"github.com/jontk/gang-scheduler/pkg/logging"
	"github.com/jontk/gang-scheduler/pkg/metrics"
	"github.com/jontk/gang-scheduler/pkg/retry"
)

// Config carries the recognised scheduler options (spec'd configuration
// surface): granularity, time-slice length, fast-schedule, and the
// per-partition job-list size hint used to avoid early slice reallocation.
type Config struct {
	Granularity        granularity.Granularity
	TimeSliceSeconds   int
	FastSchedule       bool
	DefaultJobListSize int
}

// Engine holds all scheduler state behind the single data lock, plus the
// slicer worker and the collaborator interfaces it drives.
type Engine struct {
	cfg Config

	dataMu     sync.Mutex
	partitions []*domain.Partition
	nodes      []topology.NodeInfo
	phys       *physres.Table
	resmapSize uint

	partitionSource collab.PartitionSource
	jobSource       collab.JobSource
	nodeInventory   collab.NodeInventory
	allocator       collab.CoreAllocator
	signaler        collab.Signaler
	logger          logging.Logger
	metrics         *metrics.Recorder
	retryPolicy     retry.Policy

	slicer *slicer.Slicer
}

// New builds an Engine. Call Init before any other hook. A nil rec defaults
// to a no-op recorder so callers that don't care about metrics can omit it.
func New(cfg Config, partitionSource collab.PartitionSource, jobSource collab.JobSource, nodeInventory collab.NodeInventory, allocator collab.CoreAllocator, signaler collab.Signaler, logger logging.Logger, rec *metrics.Recorder) *Engine {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if rec == nil {
		rec = metrics.NoOpRecorder()
	}
	return &Engine{
		cfg:             cfg,
		partitionSource: partitionSource,
		jobSource:       jobSource,
		nodeInventory:   nodeInventory,
		allocator:       allocator,
		signaler:        signaler,
		logger:          logger,
		metrics:         rec,
		retryPolicy:     retry.NewExponentialBackoffPolicy().WithMaxRetries(3),
	}
}

// Init reads configuration, builds the empty partition list from the
// registry, loads the physical-resource table, absorbs already-running
// jobs via scan, and spawns the slicer.
func (e *Engine) Init(ctx context.Context) error {
	e.dataMu.Lock()
	if err := e.loadTopologyAndPartitionsLocked(ctx); err != nil {
		e.dataMu.Unlock()
		return err
	}
	e.dataMu.Unlock()

	if err := e.Scan(ctx); err != nil {
		return err
	}

	state := &slicer.State{
		DataMu:     &e.dataMu,
		Partitions: &e.partitions,
		Phys:       &e.phys,
		Signaler:   e.signaler,
	}
	e.slicer = slicer.New(state, e.timeSlice(), e.logger, e.metrics)
	e.slicer.Start()
	return nil
}

func (e *Engine) timeSlice() time.Duration {
	return time.Duration(e.cfg.TimeSliceSeconds) * time.Second
}

// loadTopologyAndPartitionsLocked rebuilds nodes, resmapSize, phys, and an
// empty partition list from the registry. Caller holds dataMu.
func (e *Engine) loadTopologyAndPartitionsLocked(ctx context.Context) error {
	var nodes []topology.NodeInfo
	err := retry.Do(ctx, e.retryPolicy, func() error {
		var err error
		nodes, err = e.nodeInventory.Nodes(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: loading node inventory: %v", engineerr.ErrAllocationFailure, err)
	}
	e.nodes = nodes
	e.resmapSize = resmap.Size(nodes, e.cfg.Granularity, e.cfg.FastSchedule)
	e.phys = physres.Load(nodes, e.cfg.Granularity, e.cfg.FastSchedule)

	var snaps []collab.PartitionSnapshot
	err = retry.Do(ctx, e.retryPolicy, func() error {
		var err error
		snaps, err = e.partitionSource.PartitionsSnapshot(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: loading partition registry: %v", engineerr.ErrPartitionNotFound, err)
	}
	partitions := make([]*domain.Partition, 0, len(snaps))
	for _, s := range snaps {
		partitions = append(partitions, domain.NewPartition(s.Name, s.Priority, e.cfg.DefaultJobListSize))
	}
	e.partitions = partitions
	return nil
}

// Fini signals shutdown, attempts cooperative cancellation of the slicer
// with a bounded retry, and destroys all partition state regardless of
// whether the slicer exited cleanly.
func (e *Engine) Fini(ctx context.Context) error {
	var stopErr error
	if e.slicer != nil {
		stopErr = e.slicer.Stop(10, 50*time.Millisecond)
		if stopErr != nil {
			e.logger.Error("slicer refused to cancel within bound, proceeding with teardown", "error", stopErr)
			stopErr = fmt.Errorf("%w: %v", engineerr.ErrWorkerRefusedCancel, stopErr)
		}
	}

	e.dataMu.Lock()
	e.partitions = nil
	e.dataMu.Unlock()

	return stopErr
}

// findPartition returns the partition with the given name, or nil.
func (e *Engine) findPartition(name string) *domain.Partition {
	for _, q := range e.partitions {
		if q.Name == name {
			return q
		}
	}
	return nil
}

// findJobPartition scans every partition for a job id, returning the
// owning partition and the job, or (nil, nil) if untracked.
func (e *Engine) findJobPartition(id uint32) (*domain.Partition, *domain.Job) {
	for _, q := range e.partitions {
		if j, _ := q.FindJob(id); j != nil {
			return q, j
		}
	}
	return nil, nil
}

// JobStart finds the named partition, seats the job (re-allocating if the
// id is already tracked), and rebuilds every partition's active row if the
// new job entered Running. A partition miss is a logged, non-fatal
// degradation: the job simply runs unmultiplexed.
func (e *Engine) JobStart(ctx context.Context, id uint32, partitionName string, allocIndex int, nodeBitmap []bool) error {
	e.dataMu.Lock()
	defer e.dataMu.Unlock()

	q := e.findPartition(partitionName)
	if q == nil {
		e.logger.Warn("job_start: partition not found, job runs unmanaged", "job_id", id, "partition", partitionName)
		return nil
	}

	j, err := e.addJobToPartitionLocked(ctx, q, id, allocIndex, nodeBitmap)
	if err != nil {
		return err
	}

	if j.SigState == domain.Running {
		rowupdater.RebuildAll(ctx, e.partitions, e.phys, e.signaler, e.logger, e.metrics)
	}
	return nil
}

// addJobToPartitionLocked implements add_job_to_partition. Caller holds
// dataMu.
func (e *Engine) addJobToPartitionLocked(ctx context.Context, q *domain.Partition, id uint32, allocIndex int, nodeBitmap []bool) (*domain.Job, error) {
	if existing, idx := q.FindJob(id); existing != nil {
		shadow.Clear(existing, e.partitions)
		q.RemoveJobAt(idx)
		rowupdater.Rebuild(ctx, q, false, e.phys, e.partitions, e.signaler, e.logger, e.metrics)
	}

	r, err := resmap.Build(ctx, id, allocIndex, nodeBitmap, e.nodes, e.cfg.Granularity, e.resmapSize, e.cfg.FastSchedule, e.allocator)
	if err != nil {
		return nil, err
	}
	if err := resmap.LoadCPUVector(ctx, r, id, allocIndex, nodeBitmap, e.nodes, e.cfg.FastSchedule, e.allocator); err != nil {
		return nil, err
	}

	j := &domain.Job{ID: id, AllocIndex: allocIndex, Resmap: r, SigState: domain.Running, RowState: domain.NotActive}
	q.Jobs = append(q.Jobs, j)

	if fit.Fits(j, q, e.phys) {
		j.RowState = domain.Filler
		shadow.Cast(j, q.Priority, e.partitions)
	} else {
		e.signalOne(ctx, "suspend", j.ID)
		j.SigState = domain.Suspended
	}
	return j, nil
}

// JobEnd removes a tracked job from its partition and rebuilds every
// partition's active row.
func (e *Engine) JobEnd(ctx context.Context, id uint32) error {
	e.dataMu.Lock()
	defer e.dataMu.Unlock()

	q, _ := e.findJobPartition(id)
	if q == nil {
		return nil
	}
	e.removeJobFromPartitionLocked(ctx, q, id)
	rowupdater.RebuildAll(ctx, e.partitions, e.phys, e.signaler, e.logger, e.metrics)
	return nil
}

// removeJobFromPartitionLocked implements remove_job_from_partition.
// Caller holds dataMu.
func (e *Engine) removeJobFromPartitionLocked(ctx context.Context, q *domain.Partition, id uint32) {
	j, idx := q.FindJob(id)
	if j == nil {
		return
	}
	shadow.Clear(j, e.partitions)
	q.RemoveJobAt(idx)
	if j.SigState == domain.Suspended {
		e.signalOne(ctx, "resume", id)
	}
}

func (e *Engine) signalOne(ctx context.Context, kind string, id uint32) {
	var err error
	switch kind {
	case "suspend":
		err = e.signaler.Suspend(ctx, id)
	case "resume":
		err = e.signaler.Resume(ctx, id)
	}
	if err != nil {
		e.logger.Warn("signal failed, state advanced anyway", "signal", kind, "job_id", id, "error", err)
		return
	}
	logging.LogSignal(e.logger, kind, id)
}

// Scan absorbs tracked/untracked jobs from the external job database:
// jobs present externally but not tracked are added (and resumed if the
// external state is suspended, under the assumption a prior failover lost
// the slicer's state); jobs tracked internally whose external state is
// terminal are removed. Rebuilds every active row afterward.
func (e *Engine) Scan(ctx context.Context) error {
	e.dataMu.Lock()
	defer e.dataMu.Unlock()
	return e.scanLocked(ctx)
}

func (e *Engine) scanLocked(ctx context.Context) error {
	var snaps []collab.JobSnapshot
	err := retry.Do(ctx, e.retryPolicy, func() error {
		var err error
		snaps, err = e.jobSource.JobsSnapshot(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: scanning job database: %v", engineerr.ErrPartitionNotFound, err)
	}

	seen := make(map[uint32]bool, len(snaps))
	for _, snap := range snaps {
		if snap.State.Terminal() {
			continue
		}
		seen[snap.ID] = true

		q := e.findPartition(snap.Partition)
		if q == nil {
			e.logger.Warn("scan: partition not found for tracked job, job runs unmanaged", "job_id", snap.ID, "partition", snap.Partition)
			continue
		}

		if existing, _ := q.FindJob(snap.ID); existing != nil {
			continue
		}

		j, err := e.addJobToPartitionLocked(ctx, q, snap.ID, snap.AllocIndex, snap.NodeBitmap)
		if err != nil {
			e.logger.Error("scan: failed to absorb job", "job_id", snap.ID, "error", err)
			continue
		}
		if snap.State == collab.JobSuspended && j.SigState == domain.Running {
			e.signalOne(ctx, "resume", snap.ID)
		}
	}

	for _, q := range e.partitions {
		for i := len(q.Jobs) - 1; i >= 0; i-- {
			j := q.Jobs[i]
			if !seen[j.ID] {
				e.removeJobFromPartitionLocked(ctx, q, j.ID)
			}
		}
	}

	rowupdater.RebuildAll(ctx, e.partitions, e.phys, e.signaler, e.logger, e.metrics)
	return nil
}

// Reconfig rebuilds the partition list from the registry, transferring
// jobs from any old partition whose name survives (reconstructing resmaps
// against the new resmap_size) and resuming every suspended job in any
// partition that did not survive, then scans to catch strays.
func (e *Engine) Reconfig(ctx context.Context) error {
	e.dataMu.Lock()
	old := e.partitions
	oldNodes := e.nodes
	oldFastSchedule := e.cfg.FastSchedule

	if err := e.loadTopologyAndPartitionsLocked(ctx); err != nil {
		e.partitions = old
		e.dataMu.Unlock()
		return err
	}

	for _, oldQ := range old {
		newQ := e.findPartition(oldQ.Name)
		if newQ == nil {
			for _, j := range oldQ.Jobs {
				if j.SigState == domain.Suspended {
					e.signalOne(ctx, "resume", j.ID)
				}
			}
			continue
		}
		for _, j := range oldQ.Jobs {
			bitmap := nodeBitmapOf(j.Resmap, oldNodes, oldFastSchedule)
			wasSuspended := j.SigState == domain.Suspended
			newJob, err := e.addJobToPartitionLocked(ctx, newQ, j.ID, j.AllocIndex, bitmap)
			if err != nil {
				e.logger.Error("reconfig: failed to transfer job, dropping", "job_id", j.ID, "error", err)
				continue
			}
			// addJobToPartitionLocked suspends on non-fit but never resumes
			// on its own; if the job was already suspended coming in and
			// now fits under the new topology, tell the signaler so the
			// external state matches.
			if wasSuspended && newJob.SigState == domain.Running {
				e.signalOne(ctx, "resume", newJob.ID)
			}
		}
	}
	e.dataMu.Unlock()

	return e.Scan(ctx)
}

// nodeBitmapOf re-derives a per-node []bool presence bitmap from a job's
// existing resmap, so its resmap can be rebuilt against a new resmap_size
// on reconfigure. For Node/CPU the bitmap is the resmap's bits directly.
// For Socket/Core, a node counts as present if any of its sockets' bits
// are set, walking oldNodes in the same order Build used originally.
func nodeBitmapOf(r *resmap.Resmap, oldNodes []topology.NodeInfo, fastSchedule bool) []bool {
	if !r.Granularity.UsesSocketBits() {
		out := make([]bool, len(oldNodes))
		for i := range out {
			if uint(i) < r.Bits.Len() {
				out[i] = r.Bits.Test(uint(i))
			}
		}
		return out
	}

	out := make([]bool, len(oldNodes))
	var bit uint
	for nodeIdx, n := range oldNodes {
		sockets := topology.SocketCount(n, fastSchedule)
		for s := uint16(0); s < sockets; s++ {
			if r.Bits.Test(bit) {
				out[nodeIdx] = true
			}
			bit++
		}
	}
	return out
}
