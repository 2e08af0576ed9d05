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

// Package orchestrator implements the state machine of spec.md §4.4: for
// each request, validate the token, transform the payload, consult the
// rate limiter, send via the gateway, account the result, and choose a
// response. No subclassing — the three variants are entries in a dispatch
// table of transform.Build-shaped functions, per spec.md §9.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/home-assistant/fcm-push-gateway/internal/classify"
	"github.com/home-assistant/fcm-push-gateway/internal/gateway"
	"github.com/home-assistant/fcm-push-gateway/internal/ratelimit"
	"github.com/home-assistant/fcm-push-gateway/internal/telemetry"
	"github.com/home-assistant/fcm-push-gateway/internal/transform"
)

// Variant names, also used as the HTTP route label on telemetry.
const (
	VariantLegacy    = "legacy"
	VariantAndroidV1 = "androidV1"
	VariantIOSV1     = "iosV1"
)

// builder is the transform.Build-shaped function every variant implements.
type builder func(transform.NotificationRequest) (bool, transform.Payload)

var builders = map[string]builder{
	VariantLegacy:    transform.BuildLegacy,
	VariantAndroidV1: transform.BuildAndroidV1,
	VariantIOSV1:     transform.BuildIOSV1,
}

// Outcome is the fully-decided response: an HTTP status and its JSON body.
// internal/httpapi writes this directly; the orchestrator never touches
// net/http types, matching spec.md §1's "HTTP server shell is out of
// scope".
type Outcome struct {
	Status int
	Body   map[string]any
}

// Orchestrator wires the rate limiter, gateway, and telemetry sinks behind
// the state machine of spec.md §4.4.
type Orchestrator struct {
	Engine    *ratelimit.Engine
	Gateway   gateway.Gateway
	ErrorSink telemetry.ErrorSink
	Now       func() time.Time
}

// New wires an Orchestrator. errorSink may be nil, in which case
// InternalError entries are silently dropped (used by tests that don't
// care about telemetry).
func New(engine *ratelimit.Engine, gw gateway.Gateway, errorSink telemetry.ErrorSink) *Orchestrator {
	return &Orchestrator{Engine: engine, Gateway: gw, ErrorSink: errorSink, Now: time.Now}
}

// validateToken implements spec.md §4.4's token validation. ok is false
// and outcome is populated when the request must be rejected with 403.
func validateToken(token string) (Outcome, bool) {
	if token == "" {
		return Outcome{Status: 403, Body: map[string]any{"errorMessage": "You did not send a token!"}}, false
	}
	if !strings.Contains(token, ":") {
		return Outcome{Status: 403, Body: map[string]any{"errorMessage": "That is not a valid FCM token"}}, false
	}
	return Outcome{}, true
}

// Send runs the full send pipeline for one of the three variants.
func (o *Orchestrator) Send(ctx context.Context, variant string, req transform.NotificationRequest) Outcome {
	if rejected, ok := validateToken(req.PushToken); !ok {
		telemetry.RecordRequest(variant, telemetry.OutcomeRejectedToken)
		return rejected
	}
	build, ok := builders[variant]
	if !ok {
		return Outcome{Status: 500, Body: map[string]any{"errorType": string(classify.InternalError), "message": "unknown variant: " + variant}}
	}

	updateRateLimits, payload := build(req)
	token := req.PushToken

	status, err := o.Engine.Check(ctx, token)
	if err != nil {
		telemetry.RecordStoreError(telemetry.StoreOpRead)
		return o.internalError(ctx, classify.StepGetRateLimitDoc, err, token)
	}

	if updateRateLimits {
		status, err = o.Engine.RecordAttempt(ctx, token)
		if err != nil {
			telemetry.RecordStoreError(telemetry.StoreOpIncrementAttempt)
			return o.internalError(ctx, classify.StepUpdateRateLimitDocument, err, token)
		}

		if status.ShouldSendRateLimitNotification {
			o.sendRateLimitPushBestEffort(ctx, token, status)
		}

		if status.IsRateLimited {
			telemetry.RecordRequest(variant, telemetry.OutcomeRateLimited)
			return Outcome{Status: 429, Body: map[string]any{
				"errorType":  "RateLimited",
				"message":    "You have reached your daily notification limit.",
				"target":     token,
				"rateLimits": status.RateLimits,
			}}
		}
	}

	payload["token"] = token

	sendStart := o.now()
	messageID, sendErr := o.Gateway.Send(ctx, payload)
	telemetry.ObserveSendDuration(variant, o.now().Sub(sendStart))

	if sendErr == nil {
		rateLimits := status.RateLimits
		if updateRateLimits {
			rl, err := o.Engine.RecordSuccess(ctx, token)
			if err != nil {
				telemetry.RecordStoreError(telemetry.StoreOpRecordSuccess)
				return o.internalError(ctx, classify.StepUpdateRateLimitDocument, err, token)
			}
			rateLimits = rl
		}
		telemetry.RecordRequest(variant, telemetry.OutcomeOK)
		return Outcome{Status: 201, Body: map[string]any{
			"messageId":   messageID,
			"sentPayload": payload,
			"target":      token,
			"rateLimits":  rateLimits,
		}}
	}

	if updateRateLimits {
		if _, err := o.Engine.RecordError(ctx, token); err != nil {
			telemetry.RecordStoreError(telemetry.StoreOpRecordError)
		}
	}

	code := errorCode(sendErr)
	result := classify.Classify(sendErr, code, classify.StepSendNotification)
	if result.ShouldLog {
		o.logError(ctx, result, req)
	}
	telemetry.RecordRequest(variant, telemetry.OutcomeError)
	return Outcome{Status: 500, Body: classifiedBody(result)}
}

// Check implements the read-only /checkRateLimits endpoint.
func (o *Orchestrator) Check(ctx context.Context, token string) Outcome {
	if rejected, ok := validateToken(token); !ok {
		return rejected
	}
	status, err := o.Engine.Check(ctx, token)
	if err != nil {
		telemetry.RecordStoreError(telemetry.StoreOpRead)
		return o.internalError(ctx, classify.StepGetRateLimitDoc, err, token)
	}
	return Outcome{Status: 200, Body: map[string]any{
		"target":     token,
		"rateLimits": status.RateLimits,
	}}
}

// sendRateLimitPushBestEffort fires the one-shot notification on a
// best-effort basis: any failure is logged via the non-exiting classifier
// mode but never fails the triggering request.
func (o *Orchestrator) sendRateLimitPushBestEffort(ctx context.Context, token string, status ratelimit.Status) {
	push := buildRateLimitPush(token, status.RateLimits.Maximum, status.RateLimits.ResetsAt)
	if _, err := o.Gateway.Send(ctx, push); err != nil {
		code := errorCode(err)
		result := classify.Classify(err, code, classify.StepSendRateLimitNotification)
		if result.ShouldLog {
			o.logError(ctx, result, transform.NotificationRequest{PushToken: token})
		}
		return
	}
	telemetry.RecordRateLimitNotification()
}

func (o *Orchestrator) internalError(ctx context.Context, step classify.Step, err error, token string) Outcome {
	result := classify.Classify(err, "", step)
	o.logError(ctx, result, transform.NotificationRequest{PushToken: token})
	return Outcome{Status: 500, Body: classifiedBody(result)}
}

func (o *Orchestrator) logError(ctx context.Context, result classify.Result, req transform.NotificationRequest) {
	if !result.ShouldLog || o.ErrorSink == nil {
		return
	}
	_ = o.ErrorSink.Write(ctx, telemetry.ErrorEntry{
		Step:      string(result.Step),
		ErrorType: string(result.Type),
		ErrorCode: result.Code,
		Message:   result.Message,
		RegistrationInfo: map[string]string{
			"app_id":      req.RegistrationInfo.AppID,
			"app_version": req.RegistrationInfo.AppVersion,
			"os_version":  req.RegistrationInfo.OSVersion,
		},
		Timestamp: o.now(),
	})
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// classifiedBody shapes a classify.Result into the error-response JSON
// bodies of spec.md §7: InvalidToken/PayloadTooLarge omit errorStep
// duplication concerns but all three share errorType/errorCode/errorStep/
// message.
func classifiedBody(result classify.Result) map[string]any {
	body := map[string]any{
		"errorType": string(result.Type),
		"errorStep": string(result.Step),
		"message":   result.Message,
	}
	if result.Code != "" {
		body["errorCode"] = result.Code
	}
	return body
}

// errorCode extracts the gateway error code if the error carries one (e.g.
// *gateway.SendError); otherwise returns "".
func errorCode(err error) string {
	var se *gateway.SendError
	if ok := asSendError(err, &se); ok {
		return se.Code
	}
	return ""
}

func asSendError(err error, target **gateway.SendError) bool {
	for err != nil {
		if se, ok := err.(*gateway.SendError); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
