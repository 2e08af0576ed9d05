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

// Package ratelimit implements the per-device-token daily quota used to gate
// outbound push notifications. A Record is keyed by (token, calendar day in
// UTC) and mutated through a RateLimitStore; Engine wraps a store with the
// derivation rules that turn a raw Record into the RateLimits/RateLimitStatus
// values the orchestrator reasons about.
package ratelimit

import "time"

// Record is the persisted state for one (token, day) pair. Every field is
// non-negative and every mutation is monotonic: counters never decrease
// within a day.
type Record struct {
	AttemptsCount int64
	DeliveredCount int64
	ErrorCount    int64
	TotalCount    int64
	ExpiresAt     time.Time
}

// RateLimits is the derived, client-facing quota summary.
type RateLimits struct {
	Attempts  int64     `json:"attempts"`
	Successful int64    `json:"successful"`
	Errors    int64     `json:"errors"`
	Total     int64     `json:"total"`
	Maximum   int64     `json:"maximum"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resetsAt"`
}

// Status is the derived, non-persisted decision snapshot returned by Check
// and RecordAttempt.
type Status struct {
	IsRateLimited                 bool
	ShouldSendRateLimitNotification bool
	RateLimits                    RateLimits
}

// deriveRateLimits turns a raw Record into the client-facing summary. now is
// injected so callers (and tests) control which local-time "today" the reset
// moment is computed against — see the timezone open question in DESIGN.md.
func deriveRateLimits(rec Record, maximum int64, now time.Time) RateLimits {
	remaining := maximum - rec.DeliveredCount
	if remaining < 0 {
		remaining = 0
	}
	return RateLimits{
		Attempts:   rec.AttemptsCount,
		Successful: rec.DeliveredCount,
		Errors:     rec.ErrorCount,
		Total:      rec.TotalCount,
		Maximum:    maximum,
		Remaining:  remaining,
		ResetsAt:   nextMidnightLocal(now),
	}
}

// deriveStatus applies the strict-equality edge trigger documented in
// spec.md §3: shouldSendRateLimitNotification is true only on the exact
// request whose RecordSuccess makes deliveredCount equal to maximum, so the
// one-shot push fires exactly once per threshold crossing provided
// RecordSuccess is linearized by the store.
func deriveStatus(rec Record, maximum int64, now time.Time) Status {
	return Status{
		IsRateLimited:                    rec.DeliveredCount >= maximum,
		ShouldSendRateLimitNotification:  rec.DeliveredCount == maximum,
		RateLimits:                       deriveRateLimits(rec, maximum, now),
	}
}

// nextMidnightLocal returns midnight of (local date of now + 1 day), in
// now's location. This mirrors the existing behavior documented as an open
// question in spec.md §9: the reset moment uses local-time midnight even
// though the day bucket (dayKey) is computed in UTC, so a process running in
// a non-UTC timezone will see the two diverge. That divergence is preserved
// intentionally, not "fixed" here.
func nextMidnightLocal(now time.Time) time.Time {
	y, m, d := now.Date()
	midnightToday := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return midnightToday.AddDate(0, 0, 1)
}

// dayKey formats the UTC calendar day used to bucket a Record, as YYYYMMDD.
func dayKey(now time.Time) string {
	return now.UTC().Format("20060102")
}

// nextMidnightUTC returns the next UTC midnight strictly after now. Store
// backends use this to set a Record's ExpiresAt / backend TTL.
func nextMidnightUTC(now time.Time) time.Time {
	u := now.UTC()
	y, m, d := u.Date()
	midnightToday := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !u.Before(midnightToday) {
		return midnightToday.AddDate(0, 0, 1)
	}
	return midnightToday
}
