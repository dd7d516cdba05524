// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package lifecycle

// JobView is a read-only snapshot of one job's position in the scheduler.
type JobView struct {
	ID       uint32
	State    string
	RowState string
}

// PartitionView is a read-only snapshot of one partition.
type PartitionView struct {
	Name        string
	Priority    int32
	Jobs        []JobView
	ShadowCount int
	ActiveCount int
}

// Snapshot returns a read-only view of every partition, for introspection
// surfaces (status reporting, the admin API) that must not see or mutate
// engine-internal types directly.
func (e *Engine) Snapshot() []PartitionView {
	e.dataMu.Lock()
	defer e.dataMu.Unlock()

	out := make([]PartitionView, 0, len(e.partitions))
	for _, q := range e.partitions {
		jobs := make([]JobView, 0, len(q.Jobs))
		for _, j := range q.Jobs {
			jobs = append(jobs, JobView{ID: j.ID, State: j.SigState.String(), RowState: j.RowState.String()})
		}
		out = append(out, PartitionView{
			Name:        q.Name,
			Priority:    q.Priority,
			Jobs:        jobs,
			ShadowCount: len(q.Shadows),
			ActiveCount: q.Active.Count,
		})
	}
	return out
}
