// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package metrics records scheduler-lifecycle counters and gauges through
// hashicorp/go-metrics: suspend/resume/cycle counters, and active-row/
// shadow occupancy gauges per partition.
package metrics

import (
	"time"

	gometrics "github.com/hashicorp/go-metrics"
)

// Recorder emits scheduler metrics through a hashicorp/go-metrics sink.
type Recorder struct {
	sink gometrics.MetricSink
}

// NewRecorder builds a Recorder backed by an in-memory sink suitable for
// embedding or tests. Callers that want Prometheus/StatsD export should
// build their own gometrics.MetricSink and use NewRecorderWithSink.
func NewRecorder() *Recorder {
	return NewRecorderWithSink(gometrics.NewInmemSink(10*time.Second, time.Minute))
}

// NewRecorderWithSink builds a Recorder against a caller-supplied sink.
func NewRecorderWithSink(sink gometrics.MetricSink) *Recorder {
	return &Recorder{sink: sink}
}

// NoOpRecorder returns a Recorder that discards everything, for tests and
// callers that don't want metrics overhead.
func NoOpRecorder() *Recorder {
	return &Recorder{sink: &gometrics.BlackholeSink{}}
}

// RecordTick counts one slicer iteration and how many partitions it
// considered.
func (r *Recorder) RecordTick(partitionCount int) {
	if r == nil {
		return
	}
	r.sink.IncrCounter([]string{"gang", "slicer", "ticks"}, 1)
	r.sink.SetGauge([]string{"gang", "slicer", "partition_count"}, float32(partitionCount))
}

// RecordCycle counts a partition rotation (component F's cycle).
func (r *Recorder) RecordCycle(partition string) {
	if r == nil {
		return
	}
	r.sink.IncrCounterWithLabels([]string{"gang", "partition", "cycles"}, 1, []gometrics.Label{{Name: "partition", Value: partition}})
}

// RecordSuspend counts a suspend signal sent to a job.
func (r *Recorder) RecordSuspend(partition string) {
	if r == nil {
		return
	}
	r.sink.IncrCounterWithLabels([]string{"gang", "signal", "suspend"}, 1, []gometrics.Label{{Name: "partition", Value: partition}})
}

// RecordResume counts a resume signal sent to a job.
func (r *Recorder) RecordResume(partition string) {
	if r == nil {
		return
	}
	r.sink.IncrCounterWithLabels([]string{"gang", "signal", "resume"}, 1, []gometrics.Label{{Name: "partition", Value: partition}})
}

// RecordSignalFailure counts a failed suspend/resume delivery (logged, not
// fatal, per the error-handling design).
func (r *Recorder) RecordSignalFailure(partition, kind string) {
	if r == nil {
		return
	}
	r.sink.IncrCounterWithLabels([]string{"gang", "signal", "failure"}, 1, []gometrics.Label{
		{Name: "partition", Value: partition},
		{Name: "kind", Value: kind},
	})
}

// SetActiveCount reports a partition's current active-row occupancy.
func (r *Recorder) SetActiveCount(partition string, count int) {
	if r == nil {
		return
	}
	r.sink.SetGaugeWithLabels([]string{"gang", "partition", "active_count"}, float32(count), []gometrics.Label{{Name: "partition", Value: partition}})
}

// SetShadowCount reports a partition's current shadow count.
func (r *Recorder) SetShadowCount(partition string, count int) {
	if r == nil {
		return
	}
	r.sink.SetGaugeWithLabels([]string{"gang", "partition", "shadow_count"}, float32(count), []gometrics.Label{{Name: "partition", Value: partition}})
}

// SetJobCount reports a partition's current tracked job count.
func (r *Recorder) SetJobCount(partition string, count int) {
	if r == nil {
		return
	}
	r.sink.SetGaugeWithLabels([]string{"gang", "partition", "job_count"}, float32(count), []gometrics.Label{{Name: "partition", Value: partition}})
}
