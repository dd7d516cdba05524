// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package gang

import (
	"github.com/jontk/gang-scheduler/internal/granularity"
	"github.com/jontk/gang-scheduler/internal/lifecycle"
)

// Granularity is the unit at which resources are accounted: Node, Socket,
// Core, or CPU.
type Granularity = granularity.Granularity

const (
	Node   = granularity.Node
	Socket = granularity.Socket
	Core   = granularity.Core
	CPU    = granularity.CPU
)

// ParseGranularity maps a configuration string (including the
// memory-paired forms, "core_memory" and friends) to a Granularity.
func ParseGranularity(s string) (Granularity, bool) {
	return granularity.Parse(s)
}

// JobView is a read-only snapshot of one job's position in the scheduler,
// returned by Scheduler.Partitions for inspection and the status/admin
// surfaces.
type JobView = lifecycle.JobView

// PartitionView is a read-only snapshot of one partition.
type PartitionView = lifecycle.PartitionView
