// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Command gang-scheduler runs a self-contained demo of the gang scheduler
// against an in-memory cluster: a fixed two-node topology, a synthetic
// partition registry, and a handful of jobs started and ended on a timer.
// It serves the admin introspection API and the event feed over HTTP so
// the rotation can be watched live.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jontk/gang-scheduler/internal/collab"
	"github.com/jontk/gang-scheduler/internal/gangtest"
	"github.com/jontk/gang-scheduler/internal/topology"

	gang "github.com/jontk/gang-scheduler"
	"github.com/jontk/gang-scheduler/pkg/adminserver"
	"github.com/jontk/gang-scheduler/pkg/config"
	"github.com/jontk/gang-scheduler/pkg/events"
	"github.com/jontk/gang-scheduler/pkg/logging"
	"github.com/jontk/gang-scheduler/pkg/metrics"
	"github.com/jontk/gang-scheduler/pkg/statusview"
)

func main() {
	addr := flag.String("addr", ":8080", "address to serve the admin API and event feed on")
	flag.Parse()

	cfg := config.NewDefault()
	cfg.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.DefaultConfig())
	rec := metrics.NewRecorder()
	broadcaster := events.NewBroadcaster(logger)

	partitions := gangtest.NewFakePartitionSource(
		collab.PartitionSnapshot{Name: "high", Priority: 100},
		collab.PartitionSnapshot{Name: "default", Priority: 10},
	)
	jobs := gangtest.NewFakeJobSource()
	nodes := gangtest.NewFakeNodeInventory(
		topology.NodeInfo{Name: "node0", Sockets: 2, CoresPerSocket: 8, CPUs: 16},
		topology.NodeInfo{Name: "node1", Sockets: 2, CoresPerSocket: 8, CPUs: 16},
	)
	allocator := gangtest.NewFakeCoreAllocator()
	signaler := &observingSignaler{inner: gangtest.NewFakeSignaler(), broadcaster: broadcaster}

	sched, err := gang.New(partitions, jobs, nodes, allocator, signaler,
		gang.WithGranularity(cfg.Granularity),
		gang.WithTimeSliceSeconds(cfg.TimeSliceSeconds),
		gang.WithFastSchedule(cfg.FastSchedule),
		gang.WithDefaultJobListSize(cfg.DefaultJobListSize),
		gang.WithLogger(logger),
		gang.WithMetrics(rec),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building scheduler: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "initializing scheduler: %v\n", err)
		os.Exit(1)
	}
	defer sched.Fini(context.Background())

	go runDemoWorkload(ctx, sched, jobs, logger)

	mux := http.NewServeMux()
	mux.Handle("/", adminserver.NewServer(schedulerAdapter{sched}, logger))
	mux.Handle("/events", broadcaster)
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, statusview.Render(toReports(sched.Partitions())))
	})

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("gang-scheduler demo listening", "addr", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "serving: %v\n", err)
		os.Exit(1)
	}
}

// schedulerAdapter narrows *gang.Scheduler to the adminserver.Scheduler
// interface.
type schedulerAdapter struct {
	sched *gang.Scheduler
}

func (a schedulerAdapter) Partitions() []gang.PartitionView { return a.sched.Partitions() }
func (a schedulerAdapter) Reconfig(ctx context.Context) error { return a.sched.Reconfig(ctx) }

func toReports(views []gang.PartitionView) []statusview.PartitionReport {
	reports := make([]statusview.PartitionReport, 0, len(views))
	for _, v := range views {
		lines := make([]statusview.JobLine, 0, len(v.Jobs))
		for _, j := range v.Jobs {
			lines = append(lines, statusview.JobLine{ID: j.ID, SigState: j.State, RowState: j.RowState})
		}
		reports = append(reports, statusview.PartitionReport{
			Name:        v.Name,
			Priority:    v.Priority,
			ActiveCount: v.ActiveCount,
			ShadowCount: v.ShadowCount,
			Jobs:        lines,
		})
	}
	return reports
}

// observingSignaler wraps a Signaler and publishes every suspend/resume it
// delivers to the event feed.
type observingSignaler struct {
	inner       *gangtest.FakeSignaler
	broadcaster *events.Broadcaster
}

func (s *observingSignaler) Suspend(ctx context.Context, jobID uint32) error {
	err := s.inner.Suspend(ctx, jobID)
	if err == nil {
		s.broadcaster.Publish(events.Event{Kind: events.Suspend, JobID: jobID, Timestamp: time.Now()})
	}
	return err
}

func (s *observingSignaler) Resume(ctx context.Context, jobID uint32) error {
	err := s.inner.Resume(ctx, jobID)
	if err == nil {
		s.broadcaster.Publish(events.Event{Kind: events.Resume, JobID: jobID, Timestamp: time.Now()})
	}
	return err
}

// runDemoWorkload starts a handful of jobs against the "default" partition
// on a timer so the active row has something to rotate, and ends them
// again after a few cycles to demonstrate partition cleanup.
func runDemoWorkload(ctx context.Context, sched *gang.Scheduler, jobs *gangtest.FakeJobSource, logger logging.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	bitmap := []bool{true, false}
	var started []uint32

	for i := 0; i < 3; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		id := gangtest.NewJobID()
		jobs.Put(collab.JobSnapshot{ID: id, Partition: "default", State: collab.JobRunning, NodeBitmap: bitmap, AllocIndex: i})
		if err := sched.JobStart(ctx, id, "default", i, bitmap); err != nil {
			logger.Warn("demo job_start failed", "error", err)
			continue
		}
		started = append(started, id)
		logger.Info("demo job started", "job_id", id)
	}

	for _, id := range started {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		jobs.Remove(id)
		if err := sched.JobEnd(ctx, id); err != nil {
			logger.Warn("demo job_end failed", "error", err)
		}
		logger.Info("demo job ended", "job_id", id)
	}
}
