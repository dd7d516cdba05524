// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package topology describes the physical shape of the cluster's nodes as
// reported by the node inventory collaborator, and the fast-schedule
// resolution rule that picks configured over observed values.
package topology

import "github.com/jontk/gang-scheduler/internal/granularity"

// NodeInfo is one node's resource shape, in both its live-observed form and
// its statically configured form. The configured variants are consulted
// only when fast_schedule is enabled.
type NodeInfo struct {
	Name string

	Sockets        uint16
	CoresPerSocket uint16
	CPUs           uint16

	ConfiguredSockets        uint16
	ConfiguredCoresPerSocket uint16
	ConfiguredCPUs           uint16
}

func (n NodeInfo) sockets(fastSchedule bool) uint16 {
	if fastSchedule && n.ConfiguredSockets > 0 {
		return n.ConfiguredSockets
	}
	return n.Sockets
}

func (n NodeInfo) coresPerSocket(fastSchedule bool) uint16 {
	if fastSchedule && n.ConfiguredCoresPerSocket > 0 {
		return n.ConfiguredCoresPerSocket
	}
	return n.CoresPerSocket
}

func (n NodeInfo) cpus(fastSchedule bool) uint16 {
	if fastSchedule && n.ConfiguredCPUs > 0 {
		return n.ConfiguredCPUs
	}
	return n.CPUs
}

// SocketCount returns the number of sockets this node contributes to the
// socket-indexed bit domain, regardless of granularity. Every granularity
// that uses socket bits (Socket, Core) iterates this many bit positions per
// node.
func SocketCount(n NodeInfo, fastSchedule bool) uint16 {
	return n.sockets(fastSchedule)
}

// ResourceCapacity returns the per-bit capacity this node contributes under
// the given granularity: cpus-per-node for CPU, cores-per-socket for Core.
// Node and Socket granularities never consult capacity.
func ResourceCapacity(n NodeInfo, gran granularity.Granularity, fastSchedule bool) uint16 {
	switch gran {
	case granularity.CPU:
		return n.cpus(fastSchedule)
	case granularity.Core:
		return n.coresPerSocket(fastSchedule)
	default:
		return 0
	}
}
