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
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStream(
	t *testing.T,
	ctx context.Context,
	ts *httptest.Server,
	query string,
) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		ts.URL+"/api/v1/notifications/stream"+query,
		nil,
	)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return resp
}

// nextStreamEvent returns the event name and data of the next server-sent
// event on the stream
func nextStreamEvent(t *testing.T, scanner *bufio.Scanner) (string, NotificationResponse) {
	t.Helper()
	var name string
	var ret NotificationResponse
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ret))
		case line == "" && name != "":
			return name, ret
		}
	}
	require.NoError(t, scanner.Err())
	t.Fatal("notification stream ended early")
	return "", ret
}

func TestNotificationStreamDeliversCommittedVote(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := doRequest(t, s, http.MethodPost, "/api/v1/locations", PostRequest{
		Sender: bob.String(),
		Name:   "Plaza",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doRequest(t, s, http.MethodPost, "/api/v1/voters/"+alice.String()+"/enroll", nil, ownerToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := openStream(t, ctx, ts, "?type=Vote")
	defer resp.Body.Close()

	rec = doRequest(t, s, http.MethodPost, "/api/v1/locations/0/votes", map[string]string{
		"voter": alice.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	receipt := decode[ReceiptResponse](t, rec)

	name, notification := nextStreamEvent(t, bufio.NewScanner(resp.Body))
	assert.Equal(t, string(models.NotificationTypeVote), name)
	assert.Equal(t, string(models.NotificationTypeVote), notification.Type)
	assert.Equal(t, receipt.InvocationID, notification.InvocationID)
	assert.Equal(t, alice.String(), notification.From)
	require.NotNil(t, notification.LocationID)
	assert.Equal(t, uint64(0), *notification.LocationID)
}

func TestNotificationStreamSkipsDeniedInvocation(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp := openStream(t, ctx, ts, "?account="+alice.String())
	defer resp.Body.Close()

	// Denied: alice is not the owner and cannot mint
	rec := doRequest(t, s, http.MethodPost, "/api/v1/mint", map[string]string{
		"account": alice.String(),
		"amount":  "5",
	}, aliceToken)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	rec = doRequest(t, s, http.MethodPost, "/api/v1/mint", map[string]string{
		"account": alice.String(),
		"amount":  "7",
	}, ownerToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	name, notification := nextStreamEvent(t, bufio.NewScanner(resp.Body))
	assert.Equal(t, string(models.NotificationTypeTransfer), name)
	assert.Equal(t, "", notification.From)
	assert.Equal(t, "7", notification.Amount)
	assert.Equal(t, alice.String(), notification.To)
}

func TestNotificationStreamUnavailable(t *testing.T) {
	s := New(APIConfig{}, nil, nil, nil, nil, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStreamSubscriberDropsWhenFull(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	sub := newStreamSubscriber()
	bus.RegisterSubscriber(event.NotificationEventType, sub)
	evt := event.NewEvent(
		event.NotificationEventType,
		event.NotificationEvent{Notification: models.Notification{Type: models.NotificationTypeVote}},
	)
	for range streamBufferSize {
		bus.Publish(event.NotificationEventType, evt)
	}
	// The buffer is full, so the next delivery fails and the bus drops the
	// subscription, closing the channel behind the queued events
	bus.Publish(event.NotificationEventType, evt)
	received := 0
	for range sub.ch {
		received++
	}
	assert.Equal(t, streamBufferSize, received)
	assert.NoError(t, sub.Deliver(evt))
	sub.Close()
}

func TestStreamFilter(t *testing.T) {
	vote := models.Notification{
		Type: models.NotificationTypeVote,
		From: alice.Bytes(),
		To:   bob.Bytes(),
	}
	testDefs := []struct {
		name   string
		filter streamFilter
		match  bool
	}{
		{name: "empty", filter: streamFilter{}, match: true},
		{name: "type", filter: streamFilter{notificationType: models.NotificationTypeVote}, match: true},
		{name: "other type", filter: streamFilter{notificationType: models.NotificationTypeTransfer}, match: false},
		{name: "from", filter: streamFilter{account: alice.Bytes()}, match: true},
		{name: "to", filter: streamFilter{account: bob.Bytes()}, match: true},
		{name: "unrelated", filter: streamFilter{account: genesisOwner.Bytes()}, match: false},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			assert.Equal(t, testDef.match, testDef.filter.matches(vote))
		})
	}
}
