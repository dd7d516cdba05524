// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package fit decides whether a job can join a partition's active row
// without overcommit, and seats it if so (component D).
package fit

import (
	"github.com/jontk/gang-scheduler/internal/domain"
	"github.com/jontk/gang-scheduler/internal/physres"
	"github.com/jontk/gang-scheduler/internal/resmap"
)

// Fits reports whether job j can be seated in partition q's active row
// without overcommitting any resource.
func Fits(j *domain.Job, q *domain.Partition, phys *physres.Table) bool {
	active := q.Active.Resmap
	if active == nil || q.Active.Count == 0 {
		return true
	}

	overlap := resmap.Overlap(j.Resmap, active)
	if overlap.Count() == 0 {
		return true
	}

	gran := j.Resmap.Granularity
	if !gran.HasCPUVector() {
		// Node/Socket: any overlap at all is a conflict.
		return false
	}

	for i, e := j.Resmap.Bits.NextSet(0); e; i, e = j.Resmap.Bits.NextSet(i + 1) {
		if !overlap.Test(i) {
			continue
		}
		a := resmap.AlignIndex(j.Resmap, i)
		have := q.Active.CPU[i]
		want := j.Resmap.CPU[a]
		if uint32(have)+uint32(want) > uint32(phys.Cap(i)) {
			return false
		}
	}
	return true
}

// AddToActive seats job j into partition q's active row, unconditionally.
// Callers are responsible for having already checked Fits (except for
// shadows, which are seated regardless of fit and may overcommit; overflow
// is clamped to cap(i)).
func AddToActive(j *domain.Job, q *domain.Partition, phys *physres.Table) {
	active := &q.Active

	switch {
	case active.Resmap == nil:
		active.Resmap = j.Resmap.Clone()
	case active.Count == 0:
		active.Resmap.Bits = j.Resmap.Bits.Clone()
	default:
		active.Resmap.Bits.InPlaceUnion(j.Resmap.Bits)
	}

	if j.Resmap.Granularity.HasCPUVector() {
		if active.CPU == nil {
			active.CPU = make(map[uint]uint16)
		}
		if active.Count == 0 {
			for k := range active.CPU {
				delete(active.CPU, k)
			}
			for i, e := j.Resmap.Bits.NextSet(0); e; i, e = j.Resmap.Bits.NextSet(i + 1) {
				active.CPU[i] = j.Resmap.CPU[resmap.AlignIndex(j.Resmap, i)]
			}
		} else {
			for i, e := j.Resmap.Bits.NextSet(0); e; i, e = j.Resmap.Bits.NextSet(i + 1) {
				want := j.Resmap.CPU[resmap.AlignIndex(j.Resmap, i)]
				sum := uint32(active.CPU[i]) + uint32(want)
				cap := uint32(phys.Cap(i))
				if cap > 0 && sum > cap {
					sum = cap
				}
				active.CPU[i] = uint16(sum)
			}
		}
	}

	active.Count++
}
