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
	"testing"
	"time"
)

func TestDayKey_UsesUTCCalendarDay(t *testing.T) {
	// 23:30 in UTC-5 is already the next UTC day.
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2026, 7, 30, 23, 30, 0, 0, loc)
	if got, want := dayKey(now), "20260731"; got != want {
		t.Fatalf("dayKey = %s, want %s", got, want)
	}
}

func TestNextMidnightUTC_AdvancesToTomorrowWhenPastMidnight(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	got := nextMidnightUTC(now)
	want := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("nextMidnightUTC(midnight) = %s, want %s", got, want)
	}

	now = now.Add(time.Second)
	got = nextMidnightUTC(now)
	if !got.Equal(want) {
		t.Fatalf("nextMidnightUTC(midnight+1s) = %s, want %s", got, want)
	}
}

func TestDeriveRateLimits_RemainingFloorsAtZero(t *testing.T) {
	rec := Record{DeliveredCount: 5}
	rl := deriveRateLimits(rec, 3, time.Now())
	if rl.Remaining != 0 {
		t.Fatalf("Remaining = %d, want 0 once delivered exceeds maximum", rl.Remaining)
	}
}

func TestDeriveStatus_NotRateLimitedBelowMaximum(t *testing.T) {
	rec := Record{DeliveredCount: 2}
	status := deriveStatus(rec, 3, time.Now())
	if status.IsRateLimited || status.ShouldSendRateLimitNotification {
		t.Fatalf("status should be clear below the threshold: %+v", status)
	}
}
