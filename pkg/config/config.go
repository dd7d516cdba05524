// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package config holds the scheduler's recognised configuration options
// (spec §6): granularity, time_slice_seconds, and fast_schedule.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/jontk/gang-scheduler/internal/granularity"
)

// Config holds the scheduler's configuration.
type Config struct {
	// Granularity selects the resource-accounting unit.
	Granularity granularity.Granularity

	// TimeSliceSeconds is the interval between slicer ticks.
	TimeSliceSeconds int

	// FastSchedule selects configured over observed node parameters when
	// building the physical-resource table and resmaps.
	FastSchedule bool

	// DefaultJobListSize pre-sizes a new partition's job slice, avoiding
	// early reallocation for the common case of many short-lived jobs.
	DefaultJobListSize int
}

// NewDefault returns a configuration with conservative defaults.
func NewDefault() *Config {
	return &Config{
		Granularity:        granularity.Node,
		TimeSliceSeconds:   30,
		FastSchedule:       false,
		DefaultJobListSize: 64,
	}
}

// Load overlays environment variables onto c. Recognised variables:
// GANG_GRANULARITY, GANG_TIME_SLICE_SECONDS, GANG_FAST_SCHEDULE,
// GANG_DEFAULT_JOB_LIST_SIZE.
func (c *Config) Load() {
	if g := os.Getenv("GANG_GRANULARITY"); g != "" {
		if parsed, ok := granularity.Parse(g); ok {
			c.Granularity = parsed
		}
	}

	if secs := os.Getenv("GANG_TIME_SLICE_SECONDS"); secs != "" {
		if i, err := strconv.Atoi(secs); err == nil {
			c.TimeSliceSeconds = i
		}
	}

	c.FastSchedule = getEnvBoolOrDefault("GANG_FAST_SCHEDULE", c.FastSchedule)

	if size := os.Getenv("GANG_DEFAULT_JOB_LIST_SIZE"); size != "" {
		if i, err := strconv.Atoi(size); err == nil {
			c.DefaultJobListSize = i
		}
	}
}

// Validate checks the configuration for the invariants the engine assumes:
// a positive time slice and a non-negative list-size hint.
func (c *Config) Validate() error {
	if c.TimeSliceSeconds <= 0 {
		return ErrInvalidTimeSlice
	}
	if c.DefaultJobListSize < 0 {
		return ErrInvalidJobListSize
	}
	return nil
}

// TimeSlice returns TimeSliceSeconds as a time.Duration.
func (c *Config) TimeSlice() time.Duration {
	return time.Duration(c.TimeSliceSeconds) * time.Second
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
