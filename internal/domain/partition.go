// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"github.com/hashicorp/go-set/v3"
)

// Partition is an ordered job list, a shadow list, and an active row.
// Jobs preserves insertion order and is mutated by rotation (cycle);
// Shadows holds weak references to jobs owned by higher-priority
// partitions.
type Partition struct {
	Name     string
	Priority int32

	Jobs    []*Job
	Shadows []*Job

	Active ActiveRow

	shadowIDs *set.Set[uint32]
}

// NewPartition builds an empty partition, pre-sizing its job list to avoid
// early reallocation for the common case of many short-lived jobs.
func NewPartition(name string, priority int32, defaultJobListSize int) *Partition {
	return &Partition{
		Name:      name,
		Priority:  priority,
		Jobs:      make([]*Job, 0, defaultJobListSize),
		shadowIDs: set.New[uint32](defaultJobListSize),
	}
}

// HasShadow reports whether j is already a recorded shadow of this
// partition, in O(1).
func (p *Partition) HasShadow(j *Job) bool {
	if p.shadowIDs == nil {
		p.shadowIDs = set.New[uint32](0)
	}
	return p.shadowIDs.Contains(j.ID)
}

// AddShadow appends j to the shadow list if it is not already present.
// Returns false if j was already a shadow.
func (p *Partition) AddShadow(j *Job) bool {
	if p.HasShadow(j) {
		return false
	}
	p.shadowIDs.Insert(j.ID)
	p.Shadows = append(p.Shadows, j)
	return true
}

// RemoveShadow removes j from the shadow list if present, shifting later
// entries down to preserve order. Returns false if j was not a shadow.
func (p *Partition) RemoveShadow(j *Job) bool {
	if !p.HasShadow(j) {
		return false
	}
	p.shadowIDs.Remove(j.ID)
	for i, s := range p.Shadows {
		if s.ID == j.ID {
			p.Shadows = append(p.Shadows[:i], p.Shadows[i+1:]...)
			break
		}
	}
	return true
}

// FindJob returns the job with the given id and its index, or (nil, -1).
func (p *Partition) FindJob(id uint32) (*Job, int) {
	for i, j := range p.Jobs {
		if j.ID == id {
			return j, i
		}
	}
	return nil, -1
}

// RemoveJobAt deletes the job at index i from the job list, preserving the
// order of the rest.
func (p *Partition) RemoveJobAt(i int) {
	p.Jobs = append(p.Jobs[:i], p.Jobs[i+1:]...)
}

// TotalDemand is |jobs| + |shadows|, the count the slicer compares against
// Active.Count to decide whether a partition has something left unseated.
func (p *Partition) TotalDemand() int {
	return len(p.Jobs) + len(p.Shadows)
}
