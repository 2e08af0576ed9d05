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

package gateway

import (
	"testing"

	"github.com/home-assistant/fcm-push-gateway/internal/transform"
)

func TestToMessage_TokenNotificationAndAnalyticsLabel(t *testing.T) {
	payload := transform.Payload{
		"token":        "abc:1",
		"notification": map[string]any{"body": "Hi", "title": "T"},
		"fcm_options":  map[string]any{"analytics_label": "legacyNotification"},
		"data":         map[string]any{"count": 3},
	}
	msg, err := toMessage(payload)
	if err != nil {
		t.Fatalf("toMessage: %v", err)
	}
	if msg.Token != "abc:1" {
		t.Fatalf("Token = %q", msg.Token)
	}
	if msg.Notification == nil || msg.Notification.Body != "Hi" || msg.Notification.Title != "T" {
		t.Fatalf("Notification = %+v", msg.Notification)
	}
	if msg.FCMOptions == nil || msg.FCMOptions.AnalyticsLabel != "legacyNotification" {
		t.Fatalf("FCMOptions = %+v", msg.FCMOptions)
	}
	if msg.Data["count"] != "3" {
		t.Fatalf("Data must stringify non-string values, got %q", msg.Data["count"])
	}
}

// The transformer deletes aps.sound when it is "none", so an aps map reaching
// toMessage can carry no sound key at all; the remaining aps fields must still
// convert.
func TestToMessage_ApsSoundNoneAlreadyRemovedUpstream(t *testing.T) {
	payload := transform.Payload{
		"apns": map[string]any{
			"payload": map[string]any{
				"aps": map[string]any{"badge": 2, "contentAvailable": true},
			},
		},
	}
	msg, err := toMessage(payload)
	if err != nil {
		t.Fatalf("toMessage: %v", err)
	}
	if msg.APNS == nil || msg.APNS.Payload == nil || msg.APNS.Payload.Aps == nil {
		t.Fatalf("expected an Aps struct")
	}
	if msg.APNS.Payload.Aps.Badge == nil || *msg.APNS.Payload.Aps.Badge != 2 {
		t.Fatalf("Badge = %v", msg.APNS.Payload.Aps.Badge)
	}
	if !msg.APNS.Payload.Aps.ContentAvailable {
		t.Fatalf("ContentAvailable should be true")
	}
}

func TestToMessage_CustomAPNSPayloadKeysGoToCustomData(t *testing.T) {
	payload := transform.Payload{
		"apns": map[string]any{
			"payload": map[string]any{
				"aps":          map[string]any{},
				"entity_id":    "binary_sensor.motion",
				"homeassistant": map[string]any{"command": "clear_badge"},
			},
		},
	}
	msg, err := toMessage(payload)
	if err != nil {
		t.Fatalf("toMessage: %v", err)
	}
	if msg.APNS.Payload.CustomData["entity_id"] != "binary_sensor.motion" {
		t.Fatalf("CustomData[entity_id] = %v", msg.APNS.Payload.CustomData["entity_id"])
	}
	if _, ok := msg.APNS.Payload.CustomData["homeassistant"]; !ok {
		t.Fatalf("expected homeassistant in CustomData")
	}
}
