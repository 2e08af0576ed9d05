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

// Package httpapi is the HTTP server shell spec.md §1 calls an "external
// collaborator": routing, request decoding, and response encoding for the
// five endpoints of spec.md §6. It holds no business logic of its own —
// every request is handed straight to an orchestrator.Orchestrator.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/home-assistant/fcm-push-gateway/internal/orchestrator"
	"github.com/home-assistant/fcm-push-gateway/internal/transform"
)

// Server wires the three notification routes plus /checkRateLimits and
// /health onto an http.ServeMux.
type Server struct {
	orch *orchestrator.Orchestrator
}

// NewServer wraps orch. orch must not be nil.
func NewServer(orch *orchestrator.Orchestrator) *Server {
	return &Server{orch: orch}
}

// RegisterRoutes installs every spec.md §6 endpoint on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/sendPushNotification", s.handleSend(orchestrator.VariantLegacy))
	mux.HandleFunc("/androidV1", s.handleSend(orchestrator.VariantAndroidV1))
	mux.HandleFunc("/iOSV1", s.handleSend(orchestrator.VariantIOSV1))
	mux.HandleFunc("/checkRateLimits", s.handleCheck)
	mux.HandleFunc("/health", s.handleHealth)
}

// ListenAndServe starts an http.Server with 5s read, 15s write and 120s idle
// timeouts, the same values cmd/pushgateway uses. It sets no per-request
// context deadline: a request's context ends only when the client goes away
// or the server shuts down.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return httpServer.ListenAndServe()
}

// requestBody mirrors the JSON schema of spec.md §6 for the three
// notification endpoints; checkRateLimits only reads PushToken.
type requestBody struct {
	PushToken        string           `json:"push_token"`
	Message          string           `json:"message"`
	Title            string           `json:"title"`
	RegistrationInfo registrationJSON `json:"registration_info"`
	Data             map[string]any   `json:"data"`
}

type registrationJSON struct {
	AppID      string `json:"app_id"`
	AppVersion string `json:"app_version"`
	OSVersion  string `json:"os_version"`
	WebhookID  string `json:"webhook_id"`
}

func (b requestBody) toRequest() transform.NotificationRequest {
	return transform.NotificationRequest{
		PushToken: b.PushToken,
		Message:   b.Message,
		Title:     b.Title,
		RegistrationInfo: transform.RegistrationInfo{
			AppID:      b.RegistrationInfo.AppID,
			AppVersion: b.RegistrationInfo.AppVersion,
			OSVersion:  b.RegistrationInfo.OSVersion,
			WebhookID:  b.RegistrationInfo.WebhookID,
		},
		Data: b.Data,
	}
}

// handleSend decodes the request body, runs it through the orchestrator for
// variant, and writes the resulting Outcome. A body that fails to decode is
// treated as a missing token per spec.md §4.4 (empty PushToken → 403).
func (s *Server) handleSend(variant string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body requestBody
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		outcome := s.orch.Send(r.Context(), variant, body.toRequest())
		writeOutcome(w, outcome.Status, outcome.Body)
	}
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body requestBody
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	outcome := s.orch.Check(r.Context(), body.PushToken)
	writeOutcome(w, outcome.Status, outcome.Body)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeOutcome(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeOutcome(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
