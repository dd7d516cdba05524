// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package collab defines the narrow collaborator interfaces the scheduler
// consumes in place of a job database, a partition registry, a node
// inventory, an allocation plugin, and an RPC layer. The root gang package
// re-exports these as its public surface; internal engine packages depend
// on collab directly so they never import the public package.
package collab

import (
	"context"

	"github.com/jontk/gang-scheduler/internal/topology"
)

// JobState mirrors the external job database's state machine. Only
// Running and Suspended are meaningful to the gang scheduler; the rest
// exist so jobs_snapshot can report a job's full lifecycle position.
type JobState int

const (
	JobPending JobState = iota
	JobRunning
	JobSuspended
	JobCompleting
	JobCompleted
	JobUnknown
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	case JobSuspended:
		return "suspended"
	case JobCompleting:
		return "completing"
	case JobCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether this state means the job is gone for good and
// scan should stop tracking it.
func (s JobState) Terminal() bool {
	return s == JobCompleted
}

// PartitionSnapshot is one partition as reported by the partition registry.
type PartitionSnapshot struct {
	Name     string
	Priority int32
}

// JobSnapshot is one job as reported by the external job database.
type JobSnapshot struct {
	ID          uint32
	Partition   string
	State       JobState
	NodeBitmap  []bool
	AllocIndex  int
}

// PartitionSource reads the current partition registry.
type PartitionSource interface {
	PartitionsSnapshot(ctx context.Context) ([]PartitionSnapshot, error)
}

// JobSource reads the current external job database.
type JobSource interface {
	JobsSnapshot(ctx context.Context) ([]JobSnapshot, error)
}

// NodeInventory reads the cluster's physical node shape.
type NodeInventory interface {
	Nodes(ctx context.Context) ([]topology.NodeInfo, error)
}

// CoreAllocator answers "how many cores does this job hold on this
// socket", used to build Socket/Core resmaps and CPU vectors.
type CoreAllocator interface {
	CoresOn(ctx context.Context, jobID uint32, allocIndex, socketIndex int) (uint16, error)
}

// Signaler delivers fire-and-forget suspend/resume commands. Implementations
// must not call back into the scheduler synchronously from within Suspend
// or Resume.
type Signaler interface {
	Suspend(ctx context.Context, jobID uint32) error
	Resume(ctx context.Context, jobID uint32) error
}
