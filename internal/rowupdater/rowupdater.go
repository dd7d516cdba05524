// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package rowupdater rebuilds and rotates a partition's active row
// (component F): rebuild, rebuild_all, and cycle.
package rowupdater

import (
	"context"
	"sort"

	"github.com/jontk/gang-scheduler/internal/collab"
	"github.com/jontk/gang-scheduler/internal/domain"
	"github.com/jontk/gang-scheduler/internal/fit"
	"github.com/jontk/gang-scheduler/internal/physres"
	"github.com/jontk/gang-scheduler/internal/shadow"
	"github.com/jontk/gang-scheduler/pkg/logging"
	"github.com/jontk/gang-scheduler/pkg/metrics"
)

// signal sends a suspend/resume command, logging but never failing on
// error: the error handling design treats SignalFailure as non-fatal and
// lets the next scan or tick reconverge state.
func signal(ctx context.Context, signaler collab.Signaler, logger logging.Logger, rec *metrics.Recorder, partition, kind string, jobID uint32) {
	var err error
	switch kind {
	case "suspend":
		err = signaler.Suspend(ctx, jobID)
	case "resume":
		err = signaler.Resume(ctx, jobID)
	}
	if err != nil {
		logger.Warn("signal failed, state advanced anyway", "signal", kind, "job_id", jobID, "error", err)
		rec.RecordSignalFailure(partition, kind)
		return
	}
	logging.LogSignal(logger, kind, jobID)
	if kind == "suspend" {
		rec.RecordSuspend(partition)
	} else {
		rec.RecordResume(partition)
	}
}

// Rebuild is the central state-machine step (component F). Phase order is
// load-bearing: shadows, then existing Active jobs, then Filler jobs, then
// (if admitNew) NotActive jobs — this is what keeps the round-robin
// rotation stable.
func Rebuild(ctx context.Context, q *domain.Partition, admitNew bool, phys *physres.Table, partitions []*domain.Partition, signaler collab.Signaler, logger logging.Logger, rec *metrics.Recorder) {
	logging.LogRebuild(logger, q.Name, "enter", "admit_new", admitNew)
	defer logging.LogRebuild(logger, q.Name, "exit")

	q.Active.Reset()

	for _, s := range q.Shadows {
		fit.AddToActive(s, q, phys)
	}

	for _, j := range q.Jobs {
		if j.RowState != domain.Active {
			continue
		}
		if fit.Fits(j, q, phys) {
			fit.AddToActive(j, q, phys)
			shadow.Cast(j, q.Priority, partitions)
		} else {
			if j.SigState == domain.Running {
				signal(ctx, signaler, logger, rec, q.Name, "suspend", j.ID)
				j.SigState = domain.Suspended
			}
			shadow.Clear(j, partitions)
			j.RowState = domain.NotActive
		}
	}

	for _, j := range q.Jobs {
		if j.RowState != domain.Filler {
			continue
		}
		if fit.Fits(j, q, phys) {
			fit.AddToActive(j, q, phys)
			shadow.Cast(j, q.Priority, partitions)
		} else {
			if j.SigState == domain.Running {
				signal(ctx, signaler, logger, rec, q.Name, "suspend", j.ID)
				j.SigState = domain.Suspended
			}
			shadow.Clear(j, partitions)
			j.RowState = domain.NotActive
		}
	}

	if admitNew {
		for _, j := range q.Jobs {
			if j.RowState != domain.NotActive {
				continue
			}
			if fit.Fits(j, q, phys) {
				fit.AddToActive(j, q, phys)
				j.RowState = domain.Filler
				shadow.Cast(j, q.Priority, partitions)
				if j.SigState == domain.Suspended {
					signal(ctx, signaler, logger, rec, q.Name, "resume", j.ID)
					j.SigState = domain.Running
				}
			}
		}
	}

	rec.SetActiveCount(q.Name, q.Active.Count)
	rec.SetShadowCount(q.Name, len(q.Shadows))
	rec.SetJobCount(q.Name, len(q.Jobs))
}

// RebuildAll stable-sorts partitions by priority descending, then rebuilds
// each in that order admitting new jobs. Higher-priority partitions must
// be rebuilt first so their shadows exist before lower partitions evaluate
// fit.
func RebuildAll(ctx context.Context, partitions []*domain.Partition, phys *physres.Table, signaler collab.Signaler, logger logging.Logger, rec *metrics.Recorder) {
	sorted := SortedByPriority(partitions)
	for _, q := range sorted {
		Rebuild(ctx, q, true, phys, partitions, signaler, logger, rec)
	}
}

// SortedByPriority returns partitions stable-sorted by priority descending.
func SortedByPriority(partitions []*domain.Partition) []*domain.Partition {
	sorted := make([]*domain.Partition, len(partitions))
	copy(sorted, partitions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted
}

// Cycle is the "gang" rotation step: active jobs migrate to the tail of
// the job list preserving relative order, fillers reset in place, and the
// active row is rebuilt from the new order.
func Cycle(ctx context.Context, q *domain.Partition, phys *physres.Table, partitions []*domain.Partition, signaler collab.Signaler, logger logging.Logger, rec *metrics.Recorder) {
	logging.LogRebuild(logger, q.Name, "cycle-enter")
	defer logging.LogRebuild(logger, q.Name, "cycle-exit")
	rec.RecordCycle(q.Name)

	var actives, rest []*domain.Job
	for _, j := range q.Jobs {
		if j.RowState == domain.Active {
			actives = append(actives, j)
		} else {
			rest = append(rest, j)
		}
	}
	for _, j := range actives {
		j.RowState = domain.NotActive
	}
	q.Jobs = append(rest, actives...)

	for _, j := range q.Jobs {
		if j.RowState == domain.Filler {
			j.RowState = domain.NotActive
		}
	}

	q.Active.Reset()
	for _, s := range q.Shadows {
		fit.AddToActive(s, q, phys)
	}
	for _, j := range q.Jobs {
		if fit.Fits(j, q, phys) {
			fit.AddToActive(j, q, phys)
			j.RowState = domain.Active
		}
	}

	for _, j := range q.Jobs {
		if j.RowState == domain.NotActive && j.SigState == domain.Running {
			signal(ctx, signaler, logger, rec, q.Name, "suspend", j.ID)
			j.SigState = domain.Suspended
			shadow.Clear(j, partitions)
		}
	}

	for _, j := range q.Jobs {
		if j.RowState == domain.Active && j.SigState == domain.Suspended {
			signal(ctx, signaler, logger, rec, q.Name, "resume", j.ID)
			j.SigState = domain.Running
			shadow.Cast(j, q.Priority, partitions)
		}
	}

	rec.SetActiveCount(q.Name, q.Active.Count)
	rec.SetShadowCount(q.Name, len(q.Shadows))
	rec.SetJobCount(q.Name, len(q.Jobs))
}
