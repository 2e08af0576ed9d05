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

// Package classify maps a gateway send error plus the processing step that
// produced it into one of the three client-facing error types of spec.md
// §4.5/§7, and decides whether the error is worth a structured log entry.
package classify

import "strings"

// ErrorType is the client-facing classification of a failed request.
type ErrorType string

const (
	InvalidToken  ErrorType = "InvalidToken"
	PayloadTooLarge ErrorType = "PayloadTooLarge"
	InternalError ErrorType = "InternalError"
)

// Step names the pipeline stage an error originated in, echoed back to the
// client as errorStep and used as the telemetry log name suffix
// (errors-<step>).
type Step string

const (
	StepGetRateLimitDoc           Step = "getRateLimitDoc"
	StepSendNotification          Step = "sendNotification"
	StepSendRateLimitNotification Step = "sendRateLimitNotification"
	StepCreateRateLimitDocument   Step = "createRateLimitDocument"
	StepUpdateRateLimitDocument   Step = "updateRateLimitDocument"
)

// Result is the outcome of classifying one error.
type Result struct {
	Type      ErrorType
	Code      string
	Step      Step
	Message   string
	ShouldLog bool
}

var invalidTokenCodes = map[string]bool{
	"invalid-registration-token":       true,
	"registration-token-not-registered": true,
}

var payloadTooLargeCodes = map[string]bool{
	"invalid-argument":  true,
	"payload-too-large": true,
}

// Classify maps err (with optional gateway error code) and the step that
// produced it to a Result. It never panics and never itself performs I/O —
// ShouldLog only signals whether the caller should write a structured error
// entry.
func Classify(err error, code string, step Step) Result {
	message := ""
	if err != nil {
		message = err.Error()
	}

	if invalidTokenCodes[code] {
		return Result{Type: InvalidToken, Code: code, Step: step, Message: message, ShouldLog: false}
	}

	if payloadTooLargeCodes[code] || mentionsOversizePayload(message) {
		return Result{Type: PayloadTooLarge, Code: code, Step: step, Message: message, ShouldLog: false}
	}

	return Result{Type: InternalError, Code: code, Step: step, Message: message, ShouldLog: true}
}

func mentionsOversizePayload(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "message is too big") || strings.Contains(lower, "payload too large")
}
