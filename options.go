// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package gang

import (
	"github.com/jontk/gang-scheduler/internal/lifecycle"
	"github.com/jontk/gang-scheduler/pkg/logging"
	"github.com/jontk/gang-scheduler/pkg/metrics"
)

// Option configures a Scheduler at construction time.
type Option func(*buildOptions) error

type buildOptions struct {
	cfg     lifecycle.Config
	logger  logging.Logger
	metrics *metrics.Recorder
}

// WithGranularity selects the resource-accounting granularity. Defaults to
// Node.
func WithGranularity(g Granularity) Option {
	return func(o *buildOptions) error {
		o.cfg.Granularity = g
		return nil
	}
}

// WithTimeSliceSeconds sets the period between slicer ticks. Must be
// positive; validated at New time.
func WithTimeSliceSeconds(seconds int) Option {
	return func(o *buildOptions) error {
		o.cfg.TimeSliceSeconds = seconds
		return nil
	}
}

// WithFastSchedule selects configured (rather than observed) node
// parameters when computing physical capacity.
func WithFastSchedule(enabled bool) Option {
	return func(o *buildOptions) error {
		o.cfg.FastSchedule = enabled
		return nil
	}
}

// WithDefaultJobListSize sets the capacity hint used when pre-sizing a new
// partition's job list.
func WithDefaultJobListSize(n int) Option {
	return func(o *buildOptions) error {
		o.cfg.DefaultJobListSize = n
		return nil
	}
}

// WithLogger sets the structured logger used throughout the engine.
// Defaults to a no-op logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *buildOptions) error {
		o.logger = logger
		return nil
	}
}

// WithMetrics sets the recorder used to emit suspend/resume/cycle counters
// and active-row/shadow occupancy gauges. Defaults to a no-op recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *buildOptions) error {
		o.metrics = rec
		return nil
	}
}
