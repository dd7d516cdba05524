// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package gangtest provides in-memory fakes for the collaborator
// interfaces (internal/collab), used by every engine package's tests in
// place of a real cluster control plane.
package gangtest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jontk/gang-scheduler/internal/collab"
	"github.com/jontk/gang-scheduler/internal/topology"
)

// FakePartitionSource serves a fixed, mutable partition list.
type FakePartitionSource struct {
	mu         sync.Mutex
	partitions []collab.PartitionSnapshot
}

func NewFakePartitionSource(partitions ...collab.PartitionSnapshot) *FakePartitionSource {
	return &FakePartitionSource{partitions: partitions}
}

func (f *FakePartitionSource) PartitionsSnapshot(ctx context.Context) ([]collab.PartitionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]collab.PartitionSnapshot, len(f.partitions))
	copy(out, f.partitions)
	return out, nil
}

func (f *FakePartitionSource) Set(partitions ...collab.PartitionSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partitions = partitions
}

// FakeJobSource serves a fixed, mutable job list, keyed by ID.
type FakeJobSource struct {
	mu   sync.Mutex
	jobs map[uint32]collab.JobSnapshot
}

func NewFakeJobSource(jobs ...collab.JobSnapshot) *FakeJobSource {
	f := &FakeJobSource{jobs: make(map[uint32]collab.JobSnapshot)}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *FakeJobSource) JobsSnapshot(ctx context.Context) ([]collab.JobSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]collab.JobSnapshot, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (f *FakeJobSource) Put(j collab.JobSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[j.ID] = j
}

func (f *FakeJobSource) Remove(id uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, id)
}

// FakeNodeInventory serves a fixed node topology.
type FakeNodeInventory struct {
	nodes []topology.NodeInfo
}

func NewFakeNodeInventory(nodes ...topology.NodeInfo) *FakeNodeInventory {
	return &FakeNodeInventory{nodes: nodes}
}

func (f *FakeNodeInventory) Nodes(ctx context.Context) ([]topology.NodeInfo, error) {
	return f.nodes, nil
}

// FakeCoreAllocator answers CoresOn from a map keyed by
// (jobID, allocIndex, socketIndex), defaulting to 0 (no cores held there).
type FakeCoreAllocator struct {
	mu     sync.Mutex
	counts map[[3]int]uint16
}

func NewFakeCoreAllocator() *FakeCoreAllocator {
	return &FakeCoreAllocator{counts: make(map[[3]int]uint16)}
}

func (f *FakeCoreAllocator) Set(jobID uint32, allocIndex, socketIndex int, cores uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[[3]int{int(jobID), allocIndex, socketIndex}] = cores
}

func (f *FakeCoreAllocator) CoresOn(ctx context.Context, jobID uint32, allocIndex, socketIndex int) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[[3]int{int(jobID), allocIndex, socketIndex}], nil
}

// FakeSignaler records every suspend/resume call it receives, optionally
// failing on specific job IDs to exercise the SignalFailure path.
type FakeSignaler struct {
	mu        sync.Mutex
	Suspended []uint32
	Resumed   []uint32
	FailOn    map[uint32]error
}

func NewFakeSignaler() *FakeSignaler {
	return &FakeSignaler{FailOn: make(map[uint32]error)}
}

func (f *FakeSignaler) Suspend(ctx context.Context, jobID uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailOn[jobID]; ok {
		return err
	}
	f.Suspended = append(f.Suspended, jobID)
	return nil
}

func (f *FakeSignaler) Resume(ctx context.Context, jobID uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailOn[jobID]; ok {
		return err
	}
	f.Resumed = append(f.Resumed, jobID)
	return nil
}

// NewJobID generates a synthetic, collision-resistant job ID for tests that
// need many distinct jobs without hand-picking sequential numbers.
func NewJobID() uint32 {
	id := uuid.New()
	var v uint32
	for _, b := range id[:4] {
		v = v<<8 | uint32(b)
	}
	return v
}
