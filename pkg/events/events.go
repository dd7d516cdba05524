// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package events streams suspend/resume/shadow-cast notifications to
// websocket subscribers. This is a read-only observability feed: the
// suspend/resume RPC itself stays on the external Signaler collaborator.
package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jontk/gang-scheduler/pkg/logging"
)

// Kind is the notification type carried by an Event.
type Kind string

const (
	Suspend     Kind = "suspend"
	Resume      Kind = "resume"
	ShadowCast  Kind = "shadow_cast"
	ShadowClear Kind = "shadow_clear"
)

// Event is one broadcastable scheduler notification.
type Event struct {
	Kind      Kind      `json:"kind"`
	Partition string    `json:"partition"`
	JobID     uint32    `json:"job_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster fans out Events to every connected websocket subscriber.
// A slow subscriber whose buffer is full misses the event rather than
// blocking publishers; it stays subscribed.
type Broadcaster struct {
	upgrader websocket.Upgrader
	logger   logging.Logger

	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster builds a Broadcaster with an origin-permissive upgrader,
// suitable for a demo or trusted internal deployment.
func NewBroadcaster(logger logging.Logger) *Broadcaster {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:      logger,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Publish fans out ev to every current subscriber without blocking: a
// subscriber whose channel is full is skipped for this event.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *Broadcaster) subscribe() chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
	close(ch)
}

// ServeHTTP upgrades the request to a websocket and streams Events to it
// until the connection closes.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("events: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	closed := make(chan struct{})
	go b.drainIncoming(conn, closed)

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				b.logger.Debug("events: subscriber write failed, dropping", "error", err)
				return
			}
		}
	}
}

// drainIncoming discards anything the subscriber sends, so a client's
// unsolicited ping frames don't build up in the kernel socket buffer, and
// closes `closed` as soon as the read loop notices the connection go away.
func (b *Broadcaster) drainIncoming(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
