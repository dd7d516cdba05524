// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package physres builds and queries the run-length-encoded physical
// resource capacity table (component B): a function cap(i) giving the
// capacity of bit i in the resmap bit domain.
package physres

import (
	"github.com/jontk/gang-scheduler/internal/granularity"
	"github.com/jontk/gang-scheduler/internal/topology"
)

// run is one run of consecutive bits sharing a capacity.
type run struct {
	cap  uint16
	reps uint
}

// Table answers cap(i) in O(k) where k is the number of distinct capacity
// runs, typically far fewer than the number of nodes.
type Table struct {
	runs []run
}

// Load builds the table for the given granularity. Node and Socket never
// consult capacity and produce an empty table. CPU run-length-encodes
// cpus-per-node with one repetition per node; Core encodes cores-per-socket
// with sockets(node) repetitions per node. fastSchedule selects configured
// over observed node values.
func Load(nodes []topology.NodeInfo, gran granularity.Granularity, fastSchedule bool) *Table {
	t := &Table{}
	if gran != granularity.CPU && gran != granularity.Core {
		return t
	}
	for _, n := range nodes {
		cap := topology.ResourceCapacity(n, gran, fastSchedule)
		var reps uint
		if gran == granularity.CPU {
			reps = 1
		} else {
			reps = uint(topology.SocketCount(n, fastSchedule))
		}
		if reps == 0 {
			continue
		}
		if len(t.runs) > 0 && t.runs[len(t.runs)-1].cap == cap {
			t.runs[len(t.runs)-1].reps += reps
			continue
		}
		t.runs = append(t.runs, run{cap: cap, reps: reps})
	}
	return t
}

// Cap returns the capacity of bit i, or 0 if i falls outside every run
// (an empty table, or an out-of-range bit for Node/Socket granularity).
func (t *Table) Cap(i uint) uint16 {
	var seen uint
	for _, r := range t.runs {
		seen += r.reps
		if i < seen {
			return r.cap
		}
	}
	return 0
}
