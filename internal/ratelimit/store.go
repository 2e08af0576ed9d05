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

import "context"

// Store is the contract every backend (document store or cluster KV) must
// satisfy. Each method is keyed by token and implicitly scoped to "today"
// (UTC calendar day); backends derive the day key themselves so callers
// never construct one. Every mutating method must be linearizable with
// respect to other mutating calls for the same (token, day) — this is what
// makes the strict-equality rate-limit-notification trigger fire exactly
// once under concurrent requests across replicas.
type Store interface {
	// Read returns the current record for token, or a zero-valued Record if
	// none exists yet. Read never mutates state.
	Read(ctx context.Context, token string) (Record, error)

	// IncrementAttempt creates the record if absent, increments
	// AttemptsCount by one, refreshes ExpiresAt to the next UTC midnight,
	// and returns the post-mutation record.
	IncrementAttempt(ctx context.Context, token string) (Record, error)

	// RecordSuccess increments DeliveredCount and TotalCount by one each and
	// returns the post-mutation record.
	RecordSuccess(ctx context.Context, token string) (Record, error)

	// RecordError increments ErrorCount and TotalCount by one each and
	// returns the post-mutation record.
	RecordError(ctx context.Context, token string) (Record, error)
}
