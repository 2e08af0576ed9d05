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
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
)

// TestDocumentStore_FirestoreE2E exercises the real transaction path against
// the Firestore emulator. Requires FIRESTORE_EMULATOR_HOST and
// GOOGLE_CLOUD_PROJECT to be set; skips otherwise.
func TestDocumentStore_FirestoreE2E(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("skipping: FIRESTORE_EMULATOR_HOST not set")
	}
	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project == "" {
		project = "test-project"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := firestore.NewClient(ctx, project)
	if err != nil {
		t.Fatalf("firestore.NewClient: %v", err)
	}
	defer client.Close()

	token := "e2e-token:1"
	day := dayKey(time.Now())
	ref := client.Collection("rateLimits").Doc(day).Collection("tokens").Doc(token)
	_, _ = ref.Delete(ctx)

	store := NewDocumentStore(client)
	for i := 0; i < 3; i++ {
		if _, err := store.IncrementAttempt(ctx, token); err != nil {
			t.Fatalf("IncrementAttempt: %v", err)
		}
	}
	rec, err := store.Read(ctx, token)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rec.AttemptsCount != 3 {
		t.Fatalf("AttemptsCount = %d, want 3", rec.AttemptsCount)
	}
}
