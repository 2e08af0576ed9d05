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

package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Engine is a stateless wrapper over a Store, parameterized by the daily
// maximum. It holds no per-token state of its own; every call reads through
// to the backend, per spec.md §9 ("no in-process caching of store reads").
type Engine struct {
	store   Store
	maximum int64
	now     func() time.Time
}

// NewEngine returns an Engine backed by store, enforcing maximum deliveries
// per token per UTC day.
func NewEngine(store Store, maximum int64) *Engine {
	return &Engine{store: store, maximum: maximum, now: time.Now}
}

// Check returns the current quota status for token without mutating
// anything. Used by the /checkRateLimits endpoint.
func (e *Engine) Check(ctx context.Context, token string) (Status, error) {
	rec, err := e.store.Read(ctx, token)
	if err != nil {
		return Status{}, fmt.Errorf("ratelimit: check %s: %w", token, err)
	}
	return deriveStatus(rec, e.maximum, e.now()), nil
}

// RecordAttempt is the single atomic admission increment. Its returned
// Status is what the orchestrator inspects to decide whether to fire the
// one-shot rate-limit notification and whether to reject with 429.
func (e *Engine) RecordAttempt(ctx context.Context, token string) (Status, error) {
	rec, err := e.store.IncrementAttempt(ctx, token)
	if err != nil {
		return Status{}, fmt.Errorf("ratelimit: record attempt %s: %w", token, err)
	}
	return deriveStatus(rec, e.maximum, e.now()), nil
}

// RecordSuccess accounts one delivered notification.
func (e *Engine) RecordSuccess(ctx context.Context, token string) (RateLimits, error) {
	rec, err := e.store.RecordSuccess(ctx, token)
	if err != nil {
		return RateLimits{}, fmt.Errorf("ratelimit: record success %s: %w", token, err)
	}
	return deriveRateLimits(rec, e.maximum, e.now()), nil
}

// RecordError accounts one failed send attempt.
func (e *Engine) RecordError(ctx context.Context, token string) (RateLimits, error) {
	rec, err := e.store.RecordError(ctx, token)
	if err != nil {
		return RateLimits{}, fmt.Errorf("ratelimit: record error %s: %w", token, err)
	}
	return deriveRateLimits(rec, e.maximum, e.now()), nil
}

// Maximum returns the configured daily cap, for callers that need it
// without going through a Record (e.g. building the rate-limit notification
// body).
func (e *Engine) Maximum() int64 { return e.maximum }
