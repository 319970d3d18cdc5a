// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/event"
)

// streamBufferSize bounds the notifications queued for one stream client.
// A client that falls this far behind is disconnected.
const streamBufferSize = 256

var errStreamFull = errors.New("notification stream buffer full")

// streamSubscriber is an event.Subscriber that never blocks the bus. When its
// buffer is full Deliver fails, which makes the bus drop the subscription.
type streamSubscriber struct {
	ch     chan event.Event
	mu     sync.RWMutex
	closed bool
}

func newStreamSubscriber() *streamSubscriber {
	return &streamSubscriber{
		ch: make(chan event.Event, streamBufferSize),
	}
}

func (s *streamSubscriber) Deliver(evt event.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- evt:
		return nil
	default:
		return errStreamFull
	}
}

func (s *streamSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// streamFilter selects the notifications sent to one stream client
type streamFilter struct {
	notificationType models.NotificationType
	account          []byte
}

func (f streamFilter) matches(n models.Notification) bool {
	if f.notificationType != "" && n.Type != f.notificationType {
		return false
	}
	if f.account != nil &&
		!bytes.Equal(n.From, f.account) &&
		!bytes.Equal(n.To, f.account) {
		return false
	}
	return true
}

// handleNotificationStream sends committed notifications to the client as
// server-sent events until the client goes away or the server shuts down
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "notification stream not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	query := r.URL.Query()
	filter := streamFilter{
		notificationType: models.NotificationType(query.Get("type")),
	}
	if accountParam := query.Get("account"); accountParam != "" {
		id, err := parseIdentity(accountParam)
		if err != nil {
			s.writeContractError(w, r, err)
			return
		}
		filter.account = id.Bytes()
	}

	sub := newStreamSubscriber()
	subId := s.events.RegisterSubscriber(event.NotificationEventType, sub)
	defer s.events.Unsubscribe(event.NotificationEventType, subId)
	s.logger.Debug(
		"notification stream opened",
		"remote_addr", r.RemoteAddr,
		"subscriber_id", subId,
	)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-sub.ch:
			if !ok {
				s.logger.Debug(
					"notification stream closed by event bus",
					"subscriber_id", subId,
				)
				return
			}
			data, ok := evt.Data.(event.NotificationEvent)
			if !ok || !filter.matches(data.Notification) {
				continue
			}
			if err := writeStreamEvent(w, data.Notification); err != nil {
				s.logger.Debug(
					"notification stream write failed",
					"subscriber_id", subId,
					"error", err,
				)
				return
			}
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, n models.Notification) error {
	payload, err := json.Marshal(NewNotificationResponse(n))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Type, payload)
	return err
}
