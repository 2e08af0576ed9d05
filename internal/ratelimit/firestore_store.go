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

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore layout (reference, spec.md §6):
//
//   collection rateLimits
//     document <YYYYMMDD>             (UTC day bucket, never read directly)
//       collection tokens
//         document <push token>
//           attemptsCount  int64
//           deliveredCount int64
//           errorCount     int64
//           totalCount     int64
//
// Every mutation is a read-modify-write against that single document: fetch
// it (a missing document means a zero record), apply the field bump in
// memory, write the whole document back. The real implementation does this
// inside a Firestore transaction, which retries automatically on
// contention — the same linearizability per (token, day) that the
// cluster-KV backend gets from a single EVAL.

// docEntry mirrors the Firestore document shape. Firestore's struct tags use
// `firestore:"..."`, distinct from the json tags on RateLimits.
type docEntry struct {
	AttemptsCount  int64 `firestore:"attemptsCount"`
	DeliveredCount int64 `firestore:"deliveredCount"`
	ErrorCount     int64 `firestore:"errorCount"`
	TotalCount     int64 `firestore:"totalCount"`
}

// docTransactor runs a read-modify-write against the token document for
// (token, day): apply receives the current entry (zero-valued if the
// document doesn't exist yet) and mutates it in place; the result is
// persisted atomically. Isolating the transaction behind this one method,
// rather than exposing *firestore.Transaction/*firestore.DocumentRef
// directly, is what lets unit tests exercise the mutation logic against an
// in-memory fake instead of a live Firestore emulator.
type docTransactor interface {
	runAtomic(ctx context.Context, day, token string, apply func(*docEntry)) (docEntry, error)
	get(ctx context.Context, day, token string) (docEntry, error)
}

// firestoreTransactor is the production docTransactor, backed by a real
// *firestore.Client.
type firestoreTransactor struct {
	client *firestore.Client
}

func (t firestoreTransactor) runAtomic(ctx context.Context, day, token string, apply func(*docEntry)) (docEntry, error) {
	ref := t.client.Collection("rateLimits").Doc(day).Collection("tokens").Doc(token)
	var entry docEntry
	err := t.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			if derr := snap.DataTo(&entry); derr != nil {
				return fmt.Errorf("decode %s: %w", ref.Path, derr)
			}
		case status.Code(err) == codes.NotFound:
			entry = docEntry{}
		default:
			return err
		}
		apply(&entry)
		return tx.Set(ref, entry)
	})
	return entry, err
}

func (t firestoreTransactor) get(ctx context.Context, day, token string) (docEntry, error) {
	ref := t.client.Collection("rateLimits").Doc(day).Collection("tokens").Doc(token)
	snap, err := ref.Get(ctx)
	switch {
	case err == nil:
		var entry docEntry
		if derr := snap.DataTo(&entry); derr != nil {
			return docEntry{}, fmt.Errorf("decode %s: %w", ref.Path, derr)
		}
		return entry, nil
	case status.Code(err) == codes.NotFound:
		return docEntry{}, nil
	default:
		return docEntry{}, err
	}
}

// DocumentStore is the document-store (Firestore) backend described in
// spec.md §4.1 and §6.
type DocumentStore struct {
	client docTransactor
	now    func() time.Time
}

// NewDocumentStore wires a DocumentStore on top of a real *firestore.Client.
func NewDocumentStore(client *firestore.Client) *DocumentStore {
	return &DocumentStore{client: firestoreTransactor{client: client}, now: time.Now}
}

func (s *DocumentStore) mutate(ctx context.Context, token string, apply func(*docEntry)) (Record, error) {
	now := s.now()
	day := dayKey(now)
	entry, err := s.client.runAtomic(ctx, day, token, apply)
	if err != nil {
		return Record{}, fmt.Errorf("ratelimit: firestore mutate %s/%s: %w", day, token, err)
	}
	return recordFromDocEntry(entry, nextMidnightUTC(now)), nil
}

// Read fetches the token document for today without mutating it.
func (s *DocumentStore) Read(ctx context.Context, token string) (Record, error) {
	now := s.now()
	day := dayKey(now)
	entry, err := s.client.get(ctx, day, token)
	if err != nil {
		return Record{}, fmt.Errorf("ratelimit: firestore read %s/%s: %w", day, token, err)
	}
	return recordFromDocEntry(entry, nextMidnightUTC(now)), nil
}

func (s *DocumentStore) IncrementAttempt(ctx context.Context, token string) (Record, error) {
	return s.mutate(ctx, token, func(e *docEntry) { e.AttemptsCount++ })
}

func (s *DocumentStore) RecordSuccess(ctx context.Context, token string) (Record, error) {
	return s.mutate(ctx, token, func(e *docEntry) {
		e.DeliveredCount++
		e.TotalCount++
	})
}

func (s *DocumentStore) RecordError(ctx context.Context, token string) (Record, error) {
	return s.mutate(ctx, token, func(e *docEntry) {
		e.ErrorCount++
		e.TotalCount++
	})
}

func recordFromDocEntry(e docEntry, expiresAt time.Time) Record {
	return Record{
		AttemptsCount:  e.AttemptsCount,
		DeliveredCount: e.DeliveredCount,
		ErrorCount:     e.ErrorCount,
		TotalCount:     e.TotalCount,
		ExpiresAt:      expiresAt,
	}
}
