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
	"strconv"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory redisEvaler that understands just the two Lua
// scripts ClusterStore issues, enough to exercise the mutation logic without
// a live Redis/Valkey server.
type fakeRedis struct {
	mu   sync.Mutex
	hash map[string]map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hash: make(map[string]map[string]int64)}
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	key := keys[0]
	h, ok := f.hash[key]
	if !ok {
		h = make(map[string]int64)
		f.hash[key] = h
	}
	if len(args) >= 3 {
		field1, _ := args[0].(string)
		field2, _ := args[1].(string)
		h[field1]++
		if field2 != "" {
			h[field2]++
		}
	}
	flat := make([]interface{}, 0, len(h)*2)
	for k, v := range h {
		flat = append(flat, k, strconv.FormatInt(v, 10))
	}
	cmd.SetVal(flat)
	return cmd
}

func TestClusterStore_IncrementAttempt_Sequence(t *testing.T) {
	store := &ClusterStore{client: newFakeRedis(), now: time.Now}
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		rec, err := store.IncrementAttempt(ctx, "tok:1")
		if err != nil {
			t.Fatalf("IncrementAttempt: %v", err)
		}
		if rec.AttemptsCount != i {
			t.Fatalf("attempt %d: got AttemptsCount=%d", i, rec.AttemptsCount)
		}
	}
}

func TestClusterStore_RecordSuccess_BumpsTotalTogether(t *testing.T) {
	store := &ClusterStore{client: newFakeRedis(), now: time.Now}
	ctx := context.Background()
	rec, err := store.RecordSuccess(ctx, "tok:2")
	if err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	if rec.DeliveredCount != 1 || rec.TotalCount != 1 {
		t.Fatalf("got delivered=%d total=%d, want 1/1", rec.DeliveredCount, rec.TotalCount)
	}
	rec, err = store.RecordError(ctx, "tok:2")
	if err != nil {
		t.Fatalf("RecordError: %v", err)
	}
	if rec.ErrorCount != 1 || rec.TotalCount != 2 {
		t.Fatalf("got errors=%d total=%d, want 1/2", rec.ErrorCount, rec.TotalCount)
	}
}

func TestClusterStore_DistinctTokensDoNotInterfere(t *testing.T) {
	shared := newFakeRedis()
	store := &ClusterStore{client: shared, now: time.Now}
	ctx := context.Background()
	if _, err := store.IncrementAttempt(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	rec, err := store.IncrementAttempt(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if rec.AttemptsCount != 1 {
		t.Fatalf("token b should be independent of token a, got AttemptsCount=%d", rec.AttemptsCount)
	}
}
