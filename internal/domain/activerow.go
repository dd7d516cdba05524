// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package domain

import "github.com/jontk/gang-scheduler/internal/resmap"

// ActiveRow is the union of resmaps of every job (plus shadows) currently
// seated in a partition's time slice.
//
// CPU is keyed directly by bit index rather than packed into a dense vector
// aligned to Resmap's set bits: the active row's bit set grows bit-by-bit
// as add_to_active unions jobs in, and a dense aligned vector would need
// re-packing on every insertion in the middle. A map gives the same
// externally observable mapping (a CPU count per set bit, compared against
// cap(i)) without the reindex.
type ActiveRow struct {
	Resmap *resmap.Resmap
	CPU    map[uint]uint16
	Count  int
}

// Reset zeroes the seated count without discarding the allocated resmap, so
// the next rebuild can overwrite it in place (add_to_active's count==0 path).
func (a *ActiveRow) Reset() {
	a.Count = 0
}
