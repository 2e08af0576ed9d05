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

// Package transform builds the platform-specific FCM HTTP v1 payload for
// each of the three request variants (legacy, android-v1, ios-v1) from a
// generic NotificationRequest. Every Build function is pure: none mutate
// their input, and two calls with an identical request produce structurally
// equal payloads.
package transform

// RegistrationInfo identifies the calling application and OS, immutable
// within a request.
type RegistrationInfo struct {
	AppID      string
	AppVersion string
	OSVersion  string
	WebhookID  string
}

// NotificationRequest is the generic, transport-decoded request body common
// to all three variants.
type NotificationRequest struct {
	PushToken        string
	Message          string
	Title            string
	RegistrationInfo RegistrationInfo
	Data             map[string]any
}

// Payload is the tagged mapping this package builds, shaped to the upstream
// FCM HTTP v1 contract (notification, android, apns.headers, apns.payload,
// data, webpush, fcm_options, token). It is assembled as a plain nested map
// so the gateway package's toMessage can convert it without a second schema.
type Payload = map[string]any

// Analytics labels, one per variant, set on every payload this package
// builds.
const (
	labelLegacy        = "legacyNotification"
	labelAndroidV1     = "androidV1Notification"
	labelIOSV1         = "iosV1Notification"
	labelRateLimit     = "rateLimitNotification"
	labelEncryptedV1   = "encryptedV1Notification"
	homeAssistantIOSID = "io.robbie.HomeAssistant"
	homeAssistantAndID = "io.homeassistant.companion.android"
)
