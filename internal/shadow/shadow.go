// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package shadow maintains the cross-partition shadow relation keyed on
// priority (component E): a reference from a lower-priority partition to a
// job owned by a higher-priority partition whose resources overlap.
package shadow

import "github.com/jontk/gang-scheduler/internal/domain"

// Cast records j as a shadow in every partition with strictly lower
// priority than ownerPriority, deduplicated by identity (a no-op if j is
// already recorded there).
func Cast(j *domain.Job, ownerPriority int32, partitions []*domain.Partition) {
	for _, q := range partitions {
		if q.Priority < ownerPriority {
			q.AddShadow(j)
		}
	}
}

// Clear removes j from every partition's shadow list, shifting later
// entries down to preserve order. Must run before a job's memory is
// released so no dangling reference survives.
func Clear(j *domain.Job, partitions []*domain.Partition) {
	for _, q := range partitions {
		q.RemoveShadow(j)
	}
}
