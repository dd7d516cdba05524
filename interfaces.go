// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package gang

import (
	"github.com/jontk/gang-scheduler/internal/collab"
	"github.com/jontk/gang-scheduler/internal/topology"
)

// JobState mirrors the external job database's state machine.
type JobState = collab.JobState

const (
	JobPending    = collab.JobPending
	JobRunning    = collab.JobRunning
	JobSuspended  = collab.JobSuspended
	JobCompleting = collab.JobCompleting
	JobCompleted  = collab.JobCompleted
	JobUnknown    = collab.JobUnknown
)

// PartitionSnapshot is one partition as reported by PartitionSource.
type PartitionSnapshot = collab.PartitionSnapshot

// JobSnapshot is one job as reported by JobSource.
type JobSnapshot = collab.JobSnapshot

// NodeInfo describes one cluster node's socket/core/CPU shape, both
// observed and (when fast-schedule is enabled) configured.
type NodeInfo = topology.NodeInfo

// PartitionSource reads the current partition registry. The scheduler
// calls this during Init and Reconfig.
type PartitionSource = collab.PartitionSource

// JobSource reads the current external job database. The scheduler calls
// this during Init and every Scan.
type JobSource = collab.JobSource

// NodeInventory reads the cluster's physical node shape.
type NodeInventory = collab.NodeInventory

// CoreAllocator answers how many cores a job holds on a given socket,
// used to build Socket/Core resmaps and CPU vectors.
type CoreAllocator = collab.CoreAllocator

// Signaler delivers fire-and-forget suspend/resume commands. Errors are
// logged, never fatal: the next Scan resynchronises state. Implementations
// must not call back into the Scheduler synchronously from within Suspend
// or Resume.
type Signaler = collab.Signaler
