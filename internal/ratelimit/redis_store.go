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

	redis "github.com/redis/go-redis/v9"
)

// redisEvaler abstracts the minimal surface this backend needs from a Redis
// client. Production code wraps *redis.Client (which satisfies this via
// Eval); tests wrap an in-memory fake. Keeping the surface narrow is what
// lets the mutation logic run without a live cluster in unit tests.
type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// ClusterStore is the cluster-KV (Valkey/Redis) backend described in
// spec.md §4.1 and §6. Each (token, day) pair lives at hash key
// "rate_limit:<token>:<YYYYMMDD>" with fields attemptsCount, deliveredCount,
// errorCount, totalCount. Every mutation is a single EVAL so the
// increment+TTL+read happens as one atomic transaction, per the open
// question in spec.md §9 ("ClusterBatch(atomic=true) is required").
type ClusterStore struct {
	client redisEvaler
	now    func() time.Time
}

// NewClusterStore wires a ClusterStore on top of a real *redis.Client.
func NewClusterStore(client *redis.Client) *ClusterStore {
	return &ClusterStore{client: client, now: time.Now}
}

func redisKey(token string, now time.Time) string {
	return fmt.Sprintf("rate_limit:%s:%s", token, dayKey(now))
}

// mutateScript atomically: creates the hash if absent (HINCRBY is a no-op
// create), bumps the two fields named by ARGV[1]/ARGV[2] by 1 each (ARGV[2]
// may be the empty string to skip the second bump — used by
// IncrementAttempt, which only touches attemptsCount), refreshes the TTL to
// ARGV[3] seconds, and returns the full post-mutation hash.
const mutateScript = `
local key = KEYS[1]
local field1 = ARGV[1]
local field2 = ARGV[2]
local ttl = tonumber(ARGV[3])
redis.call('HINCRBY', key, field1, 1)
if field2 ~= '' then
  redis.call('HINCRBY', key, field2, 1)
end
if ttl and ttl > 0 then
  redis.call('EXPIRE', key, ttl)
end
return redis.call('HGETALL', key)
`

func (s *ClusterStore) mutate(ctx context.Context, token, field1, field2 string) (Record, error) {
	now := s.now()
	key := redisKey(token, now)
	ttl := int(time.Until(nextMidnightUTC(now)).Seconds())
	if ttl <= 0 {
		ttl = 1
	}
	res := s.client.Eval(ctx, mutateScript, []string{key}, field1, field2, ttl)
	flat, err := res.StringSlice()
	if err != nil {
		return Record{}, fmt.Errorf("ratelimit: redis eval %s: %w", key, err)
	}
	return recordFromHGetAll(flat, nextMidnightUTC(now)), nil
}

// Read runs a single HGETALL, issued as a one-line EVAL script because Eval
// is the only call redisEvaler exposes; it mutates nothing. The
// document-store backend's equivalent cheap Read is likewise
// non-transactional, per spec.md §4.1.
func (s *ClusterStore) Read(ctx context.Context, token string) (Record, error) {
	now := s.now()
	key := redisKey(token, now)
	res := s.client.Eval(ctx, `return redis.call('HGETALL', KEYS[1])`, []string{key})
	flat, err := res.StringSlice()
	if err != nil {
		return Record{}, fmt.Errorf("ratelimit: redis read %s: %w", key, err)
	}
	return recordFromHGetAll(flat, nextMidnightUTC(now)), nil
}

func (s *ClusterStore) IncrementAttempt(ctx context.Context, token string) (Record, error) {
	return s.mutate(ctx, token, "attemptsCount", "")
}

func (s *ClusterStore) RecordSuccess(ctx context.Context, token string) (Record, error) {
	return s.mutate(ctx, token, "deliveredCount", "totalCount")
}

func (s *ClusterStore) RecordError(ctx context.Context, token string) (Record, error) {
	return s.mutate(ctx, token, "errorCount", "totalCount")
}

// recordFromHGetAll decodes a flat field/value slice as returned by
// HGETALL. Missing fields default to zero, matching the "zero-valued record
// if absent" contract in spec.md §4.1.
func recordFromHGetAll(flat []string, expiresAt time.Time) Record {
	rec := Record{ExpiresAt: expiresAt}
	for i := 0; i+1 < len(flat); i += 2 {
		var dst *int64
		switch flat[i] {
		case "attemptsCount":
			dst = &rec.AttemptsCount
		case "deliveredCount":
			dst = &rec.DeliveredCount
		case "errorCount":
			dst = &rec.ErrorCount
		case "totalCount":
			dst = &rec.TotalCount
		default:
			continue
		}
		var v int64
		_, _ = fmt.Sscan(flat[i+1], &v)
		*dst = v
	}
	return rec
}
