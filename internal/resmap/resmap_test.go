// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package resmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jontk/gang-scheduler/internal/engineerr"
	"github.com/jontk/gang-scheduler/internal/gangtest"
	"github.com/jontk/gang-scheduler/internal/granularity"
	"github.com/jontk/gang-scheduler/internal/topology"
)

func twoNodes() []topology.NodeInfo {
	return []topology.NodeInfo{{Name: "n0", Sockets: 2}, {Name: "n1", Sockets: 1}}
}

func TestSizeNode(t *testing.T) {
	assert.Equal(t, uint(2), Size(twoNodes(), granularity.Node, false))
	assert.Equal(t, uint(2), Size(twoNodes(), granularity.CPU, false))
}

func TestSizeSocket(t *testing.T) {
	assert.Equal(t, uint(3), Size(twoNodes(), granularity.Socket, false))
	assert.Equal(t, uint(3), Size(twoNodes(), granularity.Core, false))
}

func TestBuildNodeGranularityRejectsSizeMismatch(t *testing.T) {
	_, err := Build(context.Background(), 1, 0, []bool{true}, twoNodes(), granularity.Node, 2, false, gangtest.NewFakeCoreAllocator())
	require.ErrorIs(t, err, engineerr.ErrBitmapSizeChanged)
}

func TestBuildNodeGranularityCopiesBitmap(t *testing.T) {
	r, err := Build(context.Background(), 1, 0, []bool{true, false}, twoNodes(), granularity.Node, 2, false, gangtest.NewFakeCoreAllocator())
	require.NoError(t, err)
	assert.True(t, r.Bits.Test(0))
	assert.False(t, r.Bits.Test(1))
	assert.Nil(t, r.CPU)
}

func TestBuildSocketGranularitySetsBitsWhereCoresHeld(t *testing.T) {
	alloc := gangtest.NewFakeCoreAllocator()
	alloc.Set(1, 0, 0, 4)
	alloc.Set(1, 0, 1, 0)

	r, err := Build(context.Background(), 1, 0, []bool{true, false}, twoNodes(), granularity.Socket, 3, false, alloc)
	require.NoError(t, err)
	assert.True(t, r.Bits.Test(0), "socket 0 of node 0 has cores")
	assert.False(t, r.Bits.Test(1), "socket 1 of node 0 has no cores")
	assert.False(t, r.Bits.Test(2), "node 1's socket is absent from nodeBitmap")
}

func TestBuildSocketGranularityAdvancesCursorForAbsentNodes(t *testing.T) {
	alloc := gangtest.NewFakeCoreAllocator()
	alloc.Set(1, 0, 0, 2)

	r, err := Build(context.Background(), 1, 0, []bool{false, true}, twoNodes(), granularity.Socket, 3, false, alloc)
	require.NoError(t, err)
	assert.False(t, r.Bits.Test(0))
	assert.False(t, r.Bits.Test(1))
	assert.True(t, r.Bits.Test(2), "node 1's only socket is at bit 2")
}

func TestLoadCPUVectorNoOpForNodeGranularity(t *testing.T) {
	r, err := Build(context.Background(), 1, 0, []bool{true, false}, twoNodes(), granularity.Node, 2, false, gangtest.NewFakeCoreAllocator())
	require.NoError(t, err)
	require.NoError(t, LoadCPUVector(context.Background(), r, 1, 0, []bool{true, false}, twoNodes(), false, gangtest.NewFakeCoreAllocator()))
	assert.Nil(t, r.CPU)
}

func TestLoadCPUVectorPopulatesInAscendingBitOrder(t *testing.T) {
	alloc := gangtest.NewFakeCoreAllocator()
	alloc.Set(1, 0, 0, 4)
	alloc.Set(1, 0, 1, 6)

	r, err := Build(context.Background(), 1, 0, []bool{true, true}, twoNodes(), granularity.Core, 3, false, alloc)
	require.NoError(t, err)
	require.NoError(t, LoadCPUVector(context.Background(), r, 1, 0, []bool{true, true}, twoNodes(), false, alloc))
	require.Equal(t, 2, len(r.CPU))
	assert.Equal(t, uint16(4), r.CPU[0])
	assert.Equal(t, uint16(6), r.CPU[1])
}

func TestBuildAndLoadCPUVectorAdvanceAllocIndexPerPresentNode(t *testing.T) {
	alloc := gangtest.NewFakeCoreAllocator()
	// Job 1's base alloc index is 5: node 0 (present) is queried at
	// alloc index 5, node 1 (present) at alloc index 6 — not both at 5.
	alloc.Set(1, 5, 0, 4)
	alloc.Set(1, 5, 1, 8)
	alloc.Set(1, 6, 0, 2)

	r, err := Build(context.Background(), 1, 5, []bool{true, true}, twoNodes(), granularity.Socket, 3, false, alloc)
	require.NoError(t, err)
	assert.True(t, r.Bits.Test(0), "node 0 socket 0 queried at alloc index 5")
	assert.True(t, r.Bits.Test(1), "node 0 socket 1 queried at alloc index 5")
	assert.True(t, r.Bits.Test(2), "node 1's socket queried at alloc index 6, not 5")

	r2, err := Build(context.Background(), 1, 5, []bool{true, true}, twoNodes(), granularity.Core, 3, false, alloc)
	require.NoError(t, err)
	require.NoError(t, LoadCPUVector(context.Background(), r2, 1, 5, []bool{true, true}, twoNodes(), false, alloc))
	require.Equal(t, 3, len(r2.CPU))
	assert.Equal(t, uint16(4), r2.CPU[0])
	assert.Equal(t, uint16(8), r2.CPU[1])
	assert.Equal(t, uint16(2), r2.CPU[2], "node 1's core count read from alloc index 6")
}

func TestOverlap(t *testing.T) {
	a, err := Build(context.Background(), 1, 0, []bool{true, false}, twoNodes(), granularity.Node, 2, false, gangtest.NewFakeCoreAllocator())
	require.NoError(t, err)
	b, err := Build(context.Background(), 2, 0, []bool{true, true}, twoNodes(), granularity.Node, 2, false, gangtest.NewFakeCoreAllocator())
	require.NoError(t, err)

	overlap := Overlap(a, b)
	assert.Equal(t, uint(1), overlap.Count())
	assert.True(t, overlap.Test(0))
}

func TestAlignIndex(t *testing.T) {
	r, err := Build(context.Background(), 1, 0, []bool{false, true}, twoNodes(), granularity.Node, 2, false, gangtest.NewFakeCoreAllocator())
	require.NoError(t, err)
	assert.Equal(t, 0, AlignIndex(r, 1))
	assert.Equal(t, -1, AlignIndex(r, 0), "bit 0 is unset")
}

func TestCloneIsIndependent(t *testing.T) {
	r, err := Build(context.Background(), 1, 0, []bool{true, false}, twoNodes(), granularity.Node, 2, false, gangtest.NewFakeCoreAllocator())
	require.NoError(t, err)
	r.CPU = []uint16{3}

	c := r.Clone()
	c.Bits.Set(1)
	c.CPU[0] = 9

	assert.False(t, r.Bits.Test(1), "clone's bit mutation must not leak back")
	assert.Equal(t, uint16(3), r.CPU[0], "clone's CPU mutation must not leak back")
}
