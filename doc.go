// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

/*
Package gang implements a gang time-slicing scheduler for a cluster resource
manager.

Multiple jobs may be admitted to the same partition even when their resource
requests overlap; the scheduler multiplexes them over time by suspending and
resuming jobs so that, at any instant, the set of running jobs fits within the
physical resources of the cluster. Partitions are ranked by priority: jobs in
a higher-priority partition "cast a shadow" over overlapping jobs in
lower-priority partitions for as long as the higher-priority job runs.

# Architecture

The engine is built from a handful of components, wired together by
Scheduler:

  - internal/resmap builds the bitset representation of a job's resource
    request for the configured granularity (Node, Socket, Core, CPU).
  - internal/physres builds the run-length-encoded physical resource table
    used to bound CPU/core oversubscription.
  - internal/domain holds the Job/Partition/ActiveRow data model.
  - internal/fit decides whether a job fits into a partition's active row.
  - internal/shadow maintains the cross-partition shadow relation.
  - internal/rowupdater rebuilds and rotates a partition's active row.
  - internal/slicer drives the periodic rotation in the background.
  - internal/lifecycle implements the controller-facing hooks (Init, Fini,
    Reconfig, JobStart, JobEnd, Scan).

Scheduler itself holds no scheduling logic; it delegates to the
internal/lifecycle engine, which owns the data lock and drives these
packages.

# Collaborators

The scheduler does not talk to a job database, a partition registry, a node
inventory, an allocator, or an RPC layer directly. Callers provide those
through the JobSource, PartitionSource, NodeInventory, CoreAllocator, and
Signaler interfaces defined in interfaces.go.

# Concurrency

A single data lock serializes access to scheduler state; a separate,
never-nested lock protects the background worker's running/shutdown flags.
See internal/slicer and internal/lifecycle.
*/
package gang
