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

package classify

import (
	"errors"
	"testing"
)

func TestClassify_InvalidTokenNeverLogs(t *testing.T) {
	r := Classify(errors.New("token gone"), "registration-token-not-registered", StepSendNotification)
	if r.Type != InvalidToken {
		t.Fatalf("Type = %s, want InvalidToken", r.Type)
	}
	if r.ShouldLog {
		t.Fatalf("InvalidToken must not be logged (client-caused, noisy)")
	}
}

func TestClassify_PayloadTooLargeByCode(t *testing.T) {
	r := Classify(errors.New("nope"), "payload-too-large", StepSendNotification)
	if r.Type != PayloadTooLarge || r.ShouldLog {
		t.Fatalf("got %+v", r)
	}
}

func TestClassify_PayloadTooLargeByMessageCaseInsensitive(t *testing.T) {
	r := Classify(errors.New("Message Is Too Big for FCM"), "", StepSendNotification)
	if r.Type != PayloadTooLarge {
		t.Fatalf("Type = %s, want PayloadTooLarge", r.Type)
	}
}

func TestClassify_EverythingElseIsInternalAndLogged(t *testing.T) {
	r := Classify(errors.New("connection reset"), "unavailable", StepUpdateRateLimitDocument)
	if r.Type != InternalError {
		t.Fatalf("Type = %s, want InternalError", r.Type)
	}
	if !r.ShouldLog {
		t.Fatalf("InternalError must be logged")
	}
	if r.Step != StepUpdateRateLimitDocument {
		t.Fatalf("Step = %s", r.Step)
	}
}
