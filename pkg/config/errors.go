// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrInvalidTimeSlice is returned when time_slice_seconds is not positive.
	ErrInvalidTimeSlice = errors.New("time_slice_seconds must be greater than 0")

	// ErrInvalidJobListSize is returned when the job-list size hint is negative.
	ErrInvalidJobListSize = errors.New("default job list size must be greater than or equal to 0")
)
