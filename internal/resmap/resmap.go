// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package resmap builds and combines the bitset representation of the
// resources a job holds, parameterised by granularity (component A).
package resmap

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/jontk/gang-scheduler/internal/collab"
	"github.com/jontk/gang-scheduler/internal/engineerr"
	"github.com/jontk/gang-scheduler/internal/granularity"
	"github.com/jontk/gang-scheduler/internal/topology"
)

// Resmap is a bitset over the granularity's bit domain, optionally paired
// with a dense CPU-count vector aligned to the set bits in ascending index
// order.
type Resmap struct {
	Granularity granularity.Granularity
	Bits        *bitset.BitSet
	CPU         []uint16 // nil unless Granularity.HasCPUVector()
}

// Size returns the width of the bit domain for the given granularity: one
// bit per node for Node/CPU, one bit per socket (across all nodes, in node
// order) for Socket/Core.
func Size(nodes []topology.NodeInfo, gran granularity.Granularity, fastSchedule bool) uint {
	if !gran.UsesSocketBits() {
		return uint(len(nodes))
	}
	var total uint
	for _, n := range nodes {
		total += uint(topology.SocketCount(n, fastSchedule))
	}
	return total
}

// Empty returns a zero-valued resmap over the given domain width, with no
// bits set and (if the granularity demands it) an empty CPU vector.
func Empty(gran granularity.Granularity, domainSize uint) *Resmap {
	r := &Resmap{Granularity: gran, Bits: bitset.New(domainSize)}
	if gran.HasCPUVector() {
		r.CPU = []uint16{}
	}
	return r
}

// Clone returns a deep copy of r.
func (r *Resmap) Clone() *Resmap {
	c := &Resmap{Granularity: r.Granularity, Bits: r.Bits.Clone()}
	if r.CPU != nil {
		c.CPU = append([]uint16(nil), r.CPU...)
	}
	return c
}

// Build constructs a job's resmap. nodeBitmap has one entry per node in
// inventory order, true where the job holds that node.
//
// For Node/CPU, the bit domain is the nodes themselves: nodeBitmap is
// copied verbatim, and its length must equal len(nodes) or
// engineerr.ErrBitmapSizeChanged is returned.
//
// For Socket/Core, a fresh bitset of width domainSize is allocated; nodes
// are walked in order, and for each node present in nodeBitmap the bits of
// the sockets on which allocator reports the job holds at least one core
// are set. Absent nodes still advance the bit cursor by their socket count,
// so bit positions form a node-order, job-independent numbering. The
// allocator's alloc index is a per-node cursor, starting at allocIndex and
// incrementing once per present node, since the external allocator keeps
// one allocation record per node a job holds, not one per job.
func Build(ctx context.Context, jobID uint32, allocIndex int, nodeBitmap []bool, nodes []topology.NodeInfo, gran granularity.Granularity, domainSize uint, fastSchedule bool, allocator collab.CoreAllocator) (*Resmap, error) {
	if !gran.UsesSocketBits() {
		if uint(len(nodeBitmap)) != uint(len(nodes)) {
			return nil, fmt.Errorf("%w: job %d has %d bits, node count is %d", engineerr.ErrBitmapSizeChanged, jobID, len(nodeBitmap), len(nodes))
		}
		r := &Resmap{Granularity: gran, Bits: bitset.New(domainSize)}
		for i, set := range nodeBitmap {
			if set {
				r.Bits.Set(uint(i))
			}
		}
		return r, nil
	}

	r := &Resmap{Granularity: gran, Bits: bitset.New(domainSize)}
	var bit uint
	allocCursor := allocIndex
	for nodeIdx, n := range nodes {
		sockets := topology.SocketCount(n, fastSchedule)
		present := nodeIdx < len(nodeBitmap) && nodeBitmap[nodeIdx]
		if present {
			for s := uint16(0); s < sockets; s++ {
				cores, err := allocator.CoresOn(ctx, jobID, allocCursor, int(s))
				if err != nil {
					return nil, fmt.Errorf("%w: job %d node %d socket %d: %v", engineerr.ErrAllocationFailure, jobID, nodeIdx, s, err)
				}
				if cores > 0 {
					r.Bits.Set(bit + uint(s))
				}
			}
			allocCursor++
		}
		bit += uint(sockets)
	}
	return r, nil
}

// LoadCPUVector populates r.CPU for Core/CPU granularities by querying the
// allocator for the core count on every set bit's socket, in ascending bit
// order, skipping zero-count sockets the same way Build does. No-op for
// Node/Socket. nodeBitmap must be the same bitmap passed to the Build call
// that produced r, so the per-node alloc-index cursor lines up with the
// one Build used.
func LoadCPUVector(ctx context.Context, r *Resmap, jobID uint32, allocIndex int, nodeBitmap []bool, nodes []topology.NodeInfo, fastSchedule bool, allocator collab.CoreAllocator) error {
	if !r.Granularity.HasCPUVector() {
		return nil
	}
	vec := make([]uint16, 0, r.Bits.Count())
	var bit uint
	allocCursor := allocIndex
	for nodeIdx, n := range nodes {
		sockets := topology.SocketCount(n, fastSchedule)
		present := nodeIdx < len(nodeBitmap) && nodeBitmap[nodeIdx]
		for s := uint16(0); s < sockets; s++ {
			if r.Bits.Test(bit) {
				cores, err := allocator.CoresOn(ctx, jobID, allocCursor, int(s))
				if err != nil {
					return fmt.Errorf("%w: job %d node %d socket %d: %v", engineerr.ErrAllocationFailure, jobID, nodeIdx, s, err)
				}
				vec = append(vec, cores)
			}
			bit++
		}
		if present {
			allocCursor++
		}
	}
	r.CPU = vec
	return nil
}

// Overlap returns the bitwise AND of two resmaps' bit domains.
func Overlap(a, b *Resmap) *bitset.BitSet {
	return a.Bits.Intersection(b.Bits)
}

// AlignIndex returns the position of bit i within r's CPU vector, i.e. the
// number of set bits in r strictly below i. Valid only when bit i is set in
// r.
func AlignIndex(r *Resmap, i uint) int {
	count := 0
	for j, e := r.Bits.NextSet(0); e; j, e = r.Bits.NextSet(j + 1) {
		if j == i {
			return count
		}
		count++
	}
	return -1
}
