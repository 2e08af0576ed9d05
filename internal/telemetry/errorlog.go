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

// Package telemetry implements the structured error sink and request/outcome
// metrics of spec.md §6/§7 and SPEC_FULL.md's METRICS section.
package telemetry

import (
	"context"
	"time"
)

// ErrorEntry is one structured error record, written with log name
// "errors-<step>" and severity ERROR per spec.md §6.
type ErrorEntry struct {
	Step             string
	ErrorType        string
	ErrorCode        string
	Message          string
	RequestBody      string
	Notification     string
	RegistrationInfo map[string]string
	Timestamp        time.Time
}

// ErrorSink is the structured-log-sink contract of spec.md §6. Production
// code is backed by CloudLoggingSink; local development and CI use
// FileSink; the HTTP-layer unit tests pass a nil sink to orchestrator.New.
type ErrorSink interface {
	Write(ctx context.Context, entry ErrorEntry) error
}
