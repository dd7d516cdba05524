// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package slicer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jontk/gang-scheduler/internal/domain"
	"github.com/jontk/gang-scheduler/internal/gangtest"
	"github.com/jontk/gang-scheduler/internal/granularity"
	"github.com/jontk/gang-scheduler/internal/physres"
	"github.com/jontk/gang-scheduler/pkg/metrics"
	"github.com/jontk/gang-scheduler/internal/resmap"
	"github.com/jontk/gang-scheduler/internal/rowupdater"
	"github.com/jontk/gang-scheduler/internal/topology"
	"github.com/jontk/gang-scheduler/pkg/logging"
)

func singleNodeJob(t *testing.T, id uint32) *domain.Job {
	t.Helper()
	r, err := resmap.Build(context.Background(), id, 0, []bool{true}, []topology.NodeInfo{{Name: "n0"}}, granularity.Node, 1, false, gangtest.NewFakeCoreAllocator())
	require.NoError(t, err)
	return &domain.Job{ID: id, Resmap: r, SigState: domain.Running, RowState: domain.NotActive}
}

func TestSlicerCyclesOversubscribedPartition(t *testing.T) {
	q := domain.NewPartition("default", 0, 8)
	q.Jobs = append(q.Jobs, singleNodeJob(t, 1), singleNodeJob(t, 2), singleNodeJob(t, 3))

	phys := physres.Load([]topology.NodeInfo{{Name: "n0"}}, granularity.Node, false)
	signaler := gangtest.NewFakeSignaler()
	logger := logging.NoOpLogger{}

	rowupdater.RebuildAll(context.Background(), []*domain.Partition{q}, phys, signaler, logger, metrics.NoOpRecorder())
	require.Equal(t, 1, q.Active.Count)
	firstActive := activeJobID(q)

	var mu sync.Mutex
	partitions := []*domain.Partition{q}
	physPtr := phys
	state := &State{DataMu: &mu, Partitions: &partitions, Phys: &physPtr, Signaler: signaler}

	s := New(state, 5*time.Millisecond, logger, metrics.NoOpRecorder())
	s.Start()
	defer s.Stop(20, time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return activeJobID(q) != firstActive
	}, 500*time.Millisecond, 5*time.Millisecond, "expected rotation to seat a different job")
}

// activeJobID returns the first job seated in q's active row (Active or
// Filler), or 0 if none is seated.
func activeJobID(q *domain.Partition) uint32 {
	for _, j := range q.Jobs {
		if j.Seated() {
			return j.ID
		}
	}
	return 0
}

func TestSlicerSkipsFullySeededPartitions(t *testing.T) {
	q := domain.NewPartition("default", 0, 4)
	q.Jobs = append(q.Jobs, singleNodeJob(t, 1))

	phys := physres.Load([]topology.NodeInfo{{Name: "n0"}}, granularity.Node, false)
	signaler := gangtest.NewFakeSignaler()
	logger := logging.NoOpLogger{}
	rowupdater.RebuildAll(context.Background(), []*domain.Partition{q}, phys, signaler, logger, metrics.NoOpRecorder())
	require.Equal(t, 1, q.Active.Count)

	var mu sync.Mutex
	partitions := []*domain.Partition{q}
	physPtr := phys
	state := &State{DataMu: &mu, Partitions: &partitions, Phys: &physPtr, Signaler: signaler}

	s := New(state, 5*time.Millisecond, logger, metrics.NoOpRecorder())
	s.tick(context.Background())

	assert.Equal(t, domain.Active, q.Jobs[0].RowState)
}
