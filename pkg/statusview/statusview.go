// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package statusview renders human-readable partition/job status text, as
// served on the demo command's /status HTTP page.
package statusview

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// TitleCase converts a snake_case state name ("not_active") into its
// human-readable title-cased form ("Not Active").
func TitleCase(state string) string {
	spaced := strings.ReplaceAll(state, "_", " ")
	return titleCaser.String(spaced)
}

// JobLine is one job's rendered status row.
type JobLine struct {
	ID       uint32
	SigState string
	RowState string
}

// String renders a job line as "job <id>: <SigState>, <RowState>".
func (l JobLine) String() string {
	return fmt.Sprintf("job %d: %s, %s", l.ID, TitleCase(l.SigState), TitleCase(l.RowState))
}

// PartitionReport is the renderable status of one partition.
type PartitionReport struct {
	Name        string
	Priority    int32
	ActiveCount int
	ShadowCount int
	Jobs        []JobLine
}

// Render writes a partition's status as indented, human-readable text.
func Render(reports []PartitionReport) string {
	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "%s (priority %d): %d active, %d shadowed\n", r.Name, r.Priority, r.ActiveCount, r.ShadowCount)
		for _, j := range r.Jobs {
			fmt.Fprintf(&b, "  %s\n", j)
		}
	}
	return b.String()
}
