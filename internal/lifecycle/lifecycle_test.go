// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jontk/gang-scheduler/internal/collab"
	"github.com/jontk/gang-scheduler/internal/domain"
	"github.com/jontk/gang-scheduler/internal/gangtest"
	"github.com/jontk/gang-scheduler/internal/granularity"
	"github.com/jontk/gang-scheduler/internal/topology"
	"github.com/jontk/gang-scheduler/pkg/logging"
	"github.com/jontk/gang-scheduler/pkg/metrics"
)

func newTestEngine(t *testing.T, gran granularity.Granularity, partitions []collab.PartitionSnapshot, nodes []topology.NodeInfo) (*Engine, *gangtest.FakeSignaler, *gangtest.FakeCoreAllocator) {
	t.Helper()
	signaler := gangtest.NewFakeSignaler()
	allocator := gangtest.NewFakeCoreAllocator()
	e := New(
		Config{Granularity: gran, TimeSliceSeconds: 3600, FastSchedule: false, DefaultJobListSize: 8},
		gangtest.NewFakePartitionSource(partitions...),
		gangtest.NewFakeJobSource(),
		gangtest.NewFakeNodeInventory(nodes...),
		allocator,
		signaler,
		logging.NoOpLogger{},
		metrics.NoOpRecorder(),
	)
	require.NoError(t, e.Init(context.Background()))
	t.Cleanup(func() { e.Fini(context.Background()) })
	return e, signaler, allocator
}

func jobState(e *Engine, id uint32) (domain.SigState, bool) {
	_, j := e.findJobPartition(id)
	if j == nil {
		return 0, false
	}
	return j.SigState, true
}

// S1 — two conflicting jobs in one Node-granularity partition.
func TestScenarioS1TwoConflictingJobsOnePartition(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, granularity.Node,
		[]collab.PartitionSnapshot{{Name: "default", Priority: 0}},
		[]topology.NodeInfo{{Name: "n0"}, {Name: "n1"}})

	require.NoError(t, e.JobStart(ctx, 1, "default", 0, []bool{true, false}))
	require.NoError(t, e.JobStart(ctx, 2, "default", 0, []bool{true, false}))

	aState, ok := jobState(e, 1)
	require.True(t, ok)
	bState, ok := jobState(e, 2)
	require.True(t, ok)
	assert.Equal(t, domain.Running, aState)
	assert.Equal(t, domain.Suspended, bState)

	q := e.findPartition("default")
	require.NotNil(t, q)
	_, jb := q.FindJob(2)
	require.NotNil(t, jb)
}

// S4 — shadow preemption across two partitions.
func TestScenarioS4ShadowPreemption(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, granularity.Node,
		[]collab.PartitionSnapshot{{Name: "low", Priority: 10}, {Name: "high", Priority: 100}},
		[]topology.NodeInfo{{Name: "n0"}})

	require.NoError(t, e.JobStart(ctx, 100, "low", 0, []bool{true}))
	xState, _ := jobState(e, 100)
	assert.Equal(t, domain.Running, xState)

	require.NoError(t, e.JobStart(ctx, 200, "high", 0, []bool{true}))

	yState, _ := jobState(e, 200)
	assert.Equal(t, domain.Running, yState)

	xState, _ = jobState(e, 100)
	assert.Equal(t, domain.Suspended, xState)

	low := e.findPartition("low")
	require.NotNil(t, low)
	assert.Equal(t, 1, low.Active.Count, "low.active.count should count the shadow only")
	assert.True(t, low.HasShadow(&domain.Job{ID: 200}))

	require.NoError(t, e.JobEnd(ctx, 200))

	xState, _ = jobState(e, 100)
	assert.Equal(t, domain.Running, xState, "X should be re-seated once Y's shadow clears")
	assert.False(t, low.HasShadow(&domain.Job{ID: 200}))
}

// S5 — reconfigure removes a partition; its suspended job is resumed and
// dropped from tracking.
func TestScenarioS5ReconfigureRemovesPartition(t *testing.T) {
	ctx := context.Background()
	partSource := gangtest.NewFakePartitionSource(
		collab.PartitionSnapshot{Name: "a", Priority: 0},
		collab.PartitionSnapshot{Name: "b", Priority: 0},
	)
	signaler := gangtest.NewFakeSignaler()
	e := New(
		Config{Granularity: granularity.Node, TimeSliceSeconds: 3600, DefaultJobListSize: 8},
		partSource,
		gangtest.NewFakeJobSource(),
		gangtest.NewFakeNodeInventory(topology.NodeInfo{Name: "n0"}),
		gangtest.NewFakeCoreAllocator(),
		signaler,
		logging.NoOpLogger{},
		metrics.NoOpRecorder(),
	)
	require.NoError(t, e.Init(ctx))
	t.Cleanup(func() { e.Fini(ctx) })

	require.NoError(t, e.JobStart(ctx, 1, "b", 0, []bool{true}))
	require.NoError(t, e.JobStart(ctx, 2, "b", 0, []bool{true}))
	jState, _ := jobState(e, 2)
	assert.Equal(t, domain.Suspended, jState)

	partSource.Set(collab.PartitionSnapshot{Name: "a", Priority: 0})
	require.NoError(t, e.Reconfig(ctx))

	assert.Nil(t, e.findPartition("b"))
	_, tracked := jobState(e, 2)
	assert.False(t, tracked, "job from the removed partition should no longer be tracked")
	assert.Contains(t, signaler.Resumed, uint32(2))
}

// S6 — re-allocation of the same job id: if the new resmap still fits,
// sig_state is Running after the add_job_to_partition sequence completes.
func TestScenarioS6ReallocationSameID(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, granularity.Node,
		[]collab.PartitionSnapshot{{Name: "default", Priority: 0}},
		[]topology.NodeInfo{{Name: "n0"}, {Name: "n1"}})

	require.NoError(t, e.JobStart(ctx, 42, "default", 0, []bool{true, false}))
	state, _ := jobState(e, 42)
	assert.Equal(t, domain.Running, state)

	require.NoError(t, e.JobStart(ctx, 42, "default", 0, []bool{false, true}))
	state, _ = jobState(e, 42)
	assert.Equal(t, domain.Running, state)

	q := e.findPartition("default")
	count := 0
	for _, j := range q.Jobs {
		if j.ID == 42 {
			count++
		}
	}
	assert.Equal(t, 1, count, "re-allocation must not duplicate the job entry")
}
