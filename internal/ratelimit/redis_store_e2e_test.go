//go:build e2e

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
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// TestClusterStore_RedisE2E exercises the real Lua script against a live
// Valkey/Redis instance. Requires REDIS at 127.0.0.1:6379; skips otherwise.
func TestClusterStore_RedisE2E(t *testing.T) {
	rc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: redis not reachable on 127.0.0.1:6379: %v", err)
	}

	token := "e2e-token:1"
	key := redisKey(token, time.Now())
	_ = rc.Del(context.Background(), key).Err()

	store := NewClusterStore(rc)
	for i := 0; i < 3; i++ {
		if _, err := store.IncrementAttempt(context.Background(), token); err != nil {
			t.Fatalf("IncrementAttempt: %v", err)
		}
	}
	rec, err := store.Read(context.Background(), token)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rec.AttemptsCount != 3 {
		t.Fatalf("AttemptsCount = %d, want 3", rec.AttemptsCount)
	}

	ttl, err := rc.TTL(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 {
		t.Fatalf("expected a positive TTL on the rate-limit hash, got %s", ttl)
	}
}
