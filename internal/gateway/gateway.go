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

// Package gateway sends an already-built transform.Payload to FCM. The
// upstream client is called via Send(payload) → (messageID, error) per
// spec.md §1's "out of scope" collaborator list; this package is the one
// concrete binding of that contract to firebase.google.com/go/v4/messaging.
package gateway

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"github.com/home-assistant/fcm-push-gateway/internal/transform"
)

// Gateway is the send contract the orchestrator depends on. Production code
// is backed by FCMGateway; tests use an in-memory fake.
type Gateway interface {
	Send(ctx context.Context, payload transform.Payload) (messageID string, err error)
}

// SendError wraps a gateway failure with the upstream error code classify
// needs, extracted from the messaging SDK's typed predicates.
type SendError struct {
	Code string
	Err  error
}

func (e *SendError) Error() string { return e.Err.Error() }
func (e *SendError) Unwrap() error { return e.Err }

// FCMGateway sends via a real *messaging.Client.
type FCMGateway struct {
	client *messaging.Client
}

// NewFCMGateway wires a Gateway on top of an already-initialized messaging
// client (built from a firebase.App in cmd/pushgateway).
func NewFCMGateway(client *messaging.Client) *FCMGateway {
	return &FCMGateway{client: client}
}

// Send converts payload to a *messaging.Message and sends it, classifying
// any SDK error into the code vocabulary internal/classify expects.
func (g *FCMGateway) Send(ctx context.Context, payload transform.Payload) (string, error) {
	msg, err := toMessage(payload)
	if err != nil {
		return "", fmt.Errorf("gateway: build message: %w", err)
	}
	id, err := g.client.Send(ctx, msg)
	if err != nil {
		return "", &SendError{Code: errorCode(err), Err: err}
	}
	return id, nil
}

// errorCode maps a messaging SDK error to the string vocabulary spec.md
// §4.5 classifies on, using the SDK's own typed predicates rather than
// string-matching its error text.
func errorCode(err error) string {
	switch {
	case messaging.IsRegistrationTokenNotRegistered(err):
		return "registration-token-not-registered"
	case messaging.IsInvalidArgument(err):
		return "invalid-argument"
	case messaging.IsMessageRateExceeded(err), messaging.IsServerUnavailable(err), messaging.IsInternal(err):
		return "internal"
	default:
		return "unknown"
	}
}
