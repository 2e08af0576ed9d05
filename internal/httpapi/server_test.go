// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/home-assistant/fcm-push-gateway/internal/orchestrator"
	"github.com/home-assistant/fcm-push-gateway/internal/ratelimit"
	"github.com/home-assistant/fcm-push-gateway/internal/transform"
)

// fakeStore is a minimal in-memory ratelimit.Store, enough to exercise the
// HTTP layer without a live Firestore/Redis backend.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]ratelimit.Record
}

func newFakeStore() *fakeStore { return &fakeStore{records: make(map[string]ratelimit.Record)} }

func (f *fakeStore) Read(_ context.Context, token string) (ratelimit.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[token], nil
}

func (f *fakeStore) IncrementAttempt(_ context.Context, token string) (ratelimit.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.records[token]
	r.AttemptsCount++
	f.records[token] = r
	return r, nil
}

func (f *fakeStore) RecordSuccess(_ context.Context, token string) (ratelimit.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.records[token]
	r.DeliveredCount++
	r.TotalCount++
	f.records[token] = r
	return r, nil
}

func (f *fakeStore) RecordError(_ context.Context, token string) (ratelimit.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.records[token]
	r.ErrorCount++
	r.TotalCount++
	f.records[token] = r
	return r, nil
}

// fakeGateway always succeeds, recording every payload it was sent.
type fakeGateway struct {
	mu   sync.Mutex
	sent []transform.Payload
}

func (g *fakeGateway) Send(_ context.Context, payload transform.Payload) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, payload)
	return "msg-1", nil
}

func newTestServer() (*httptest.Server, *fakeGateway) {
	store := newFakeStore()
	engine := ratelimit.NewEngine(store, 500)
	gw := &fakeGateway{}
	orch := orchestrator.New(engine, gw, nil)
	srv := NewServer(orch)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return httptest.NewServer(mux), gw
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q, want ok", body["status"])
	}
}

func TestSendPushNotificationHappyPath(t *testing.T) {
	ts, gw := newTestServer()
	defer ts.Close()

	reqBody := `{"push_token":"abc:1","message":"Hi","registration_info":{"app_id":"com.x"}}`
	resp, err := http.Post(ts.URL+"/sendPushNotification", "application/json", bytes.NewBufferString(reqBody))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["messageId"] != "msg-1" {
		t.Fatalf("messageId = %v", body["messageId"])
	}
	if len(gw.sent) != 1 {
		t.Fatalf("gateway called %d times, want 1", len(gw.sent))
	}
	if gw.sent[0]["token"] != "abc:1" {
		t.Fatalf("sent payload token = %v", gw.sent[0]["token"])
	}
}

func TestSendPushNotificationMissingToken(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sendPushNotification", "application/json", bytes.NewBufferString(`{"message":"Hi"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["errorMessage"] != "You did not send a token!" {
		t.Fatalf("errorMessage = %v", body["errorMessage"])
	}
}

func TestCheckRateLimits(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/checkRateLimits", "application/json", bytes.NewBufferString(`{"push_token":"abc:1"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["target"] != "abc:1" {
		t.Fatalf("target = %v", body["target"])
	}
}
