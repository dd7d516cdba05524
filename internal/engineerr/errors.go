// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package engineerr holds the sentinel errors the engine packages raise.
// pkg/errors wraps these into SchedError for anything that crosses the
// public Scheduler boundary; internal packages compare against the
// sentinels directly with errors.Is.
package engineerr

import "errors"

var (
	// ErrBitmapSizeChanged means a job's resmap length disagrees with the
	// current node count. Fatal: it indicates a missed reconfigure.
	ErrBitmapSizeChanged = errors.New("resmap: bitmap size changed since last reconfigure")

	// ErrAllocationFailure means resmap construction could not allocate.
	ErrAllocationFailure = errors.New("resmap: allocation failure")

	// ErrPartitionNotFound means job_start named a partition the registry
	// does not know about. Non-fatal: the job runs unmanaged.
	ErrPartitionNotFound = errors.New("lifecycle: partition not found")

	// ErrSignalFailure means a suspend/resume call returned an error.
	// Non-fatal: state advances as if the signal succeeded.
	ErrSignalFailure = errors.New("rowupdater: signal failure")

	// ErrWorkerRefusedCancel means the slicer did not exit within the
	// bounded retry window during fini.
	ErrWorkerRefusedCancel = errors.New("slicer: worker refused cancel")
)
