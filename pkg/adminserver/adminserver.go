// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package adminserver exposes a small HTTP introspection API over the
// scheduler's lifecycle hooks (component H) for operational use: listing
// partitions, inspecting one, and triggering a reconfigure.
package adminserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	gang "github.com/jontk/gang-scheduler"
	"github.com/jontk/gang-scheduler/pkg/logging"
)

// Scheduler is the subset of *gang.Scheduler the admin API drives.
type Scheduler interface {
	Partitions() []gang.PartitionView
	Reconfig(ctx context.Context) error
}

// Server wraps a gorilla/mux router around a Scheduler.
type Server struct {
	router *mux.Router
	sched  Scheduler
	logger logging.Logger
}

// NewServer builds a Server and registers its routes.
func NewServer(sched Scheduler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &Server{router: mux.NewRouter().StrictSlash(true), sched: sched, logger: logger}
	s.router.HandleFunc("/partitions", s.handleListPartitions).Methods(http.MethodGet)
	s.router.HandleFunc("/partitions/{name}", s.handleGetPartition).Methods(http.MethodGet)
	s.router.HandleFunc("/reconfig", s.handleReconfig).Methods(http.MethodPost)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleListPartitions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Partitions())
}

func (s *Server) handleGetPartition(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	for _, p := range s.sched.Partitions() {
		if p.Name == name {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	http.Error(w, "partition not found", http.StatusNotFound)
}

func (s *Server) handleReconfig(w http.ResponseWriter, r *http.Request) {
	if err := s.sched.Reconfig(r.Context()); err != nil {
		s.logger.Error("adminserver: reconfig failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
