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

package transform

import "fmt"

// androidNotificationKeys is the fixed allow-list of spec.md §4.3: each
// present key is stringified and copied to data.<key> verbatim.
var androidNotificationKeys = []string{
	"icon", "color", "sound", "tag", "channel", "ticker", "sticky", "eventTime",
	"localOnly", "notificationPriority", "defaultSound", "defaultVibrateTimings",
	"defaultLightSettings", "vibrateTimings", "visibility", "notificationCount",
	"lightSettings", "image", "timeout", "importance", "subject", "group",
	"icon_url", "ledColor", "vibrationPattern", "persistent", "chronometer",
	"when", "alert_once", "intent_class_name", "notification_icon",
	"ble_advertise", "ble_transmit", "video", "high_accuracy_update_interval",
	"package_name", "tts_text", "media_stream", "command",
	"intent_package_name", "intent_action", "intent_extras", "media_command",
	"media_package_name", "intent_uri", "intent_type", "ble_uuid", "ble_major",
	"ble_minor", "confirmation", "app_lock_enabled", "app_lock_timeout",
	"home_bypass_enabled", "car_ui", "ble_measured_power", "progress",
	"progress_max", "progress_indeterminate", "bodyLocKey", "bodyLocArgs",
	"titleLocKey", "titleLocArgs", "clickAction", "when_relative",
}

// androidCommandMessages is the fixed list of req.Message values that
// repurpose the notification into a silent command and disable rate-limit
// accounting, per spec.md §4.3.
var androidCommandMessages = map[string]bool{
	"request_location_update": true, "clear_notification": true,
	"remove_channel": true, "command_dnd": true, "command_ringer_mode": true,
	"command_broadcast_intent": true, "command_volume_level": true,
	"command_screen_on": true, "command_bluetooth": true,
	"command_high_accuracy_mode": true, "command_activity": true,
	"command_app_lock": true, "command_webview": true, "command_media": true,
	"command_update_sensors": true, "command_ble_transmitter": true,
	"command_persistent_connection": true, "command_stop_tts": true,
	"command_auto_screen_brightness": true,
	"command_screen_brightness_level": true, "command_screen_off_timeout": true,
	"command_flashlight": true,
}

// BuildAndroidV1 is the android-v1 variant's Build function (spec.md §4.3).
func BuildAndroidV1(req NotificationRequest) (bool, Payload) {
	payload := seed(req, labelAndroidV1)
	updateRateLimits := true
	applyHomeAssistantAndroid(payload, req, &updateRateLimits)
	return updateRateLimits, payload
}

// applyHomeAssistantAndroid builds the full Home Assistant Android data
// tree: indexed actions, ttl/priority passthrough, the stringified
// allow-list, and the always-reflected message/title/webhook_id fields.
func applyHomeAssistantAndroid(payload Payload, req NotificationRequest, updateRateLimits *bool) {
	data := req.Data

	if actions, ok := data["actions"].([]any); ok {
		for i, a := range actions {
			action, ok := a.(map[string]any)
			if !ok {
				continue
			}
			index := i + 1
			for _, field := range []string{"key", "title", "uri", "behavior"} {
				if v, ok := action[field]; ok {
					set(payload, v, "data", fmt.Sprintf("action_%d_%s", index, field))
				}
			}
		}
	}

	if ttl, ok := data["ttl"]; ok {
		set(payload, ttl, "android", "ttl")
	}
	if priority, ok := data["priority"]; ok {
		set(payload, priority, "android", "priority")
	}

	for _, key := range androidNotificationKeys {
		if v, ok := data[key]; ok {
			set(payload, fmt.Sprintf("%v", v), "data", key)
		}
	}

	if androidCommandMessages[req.Message] {
		*updateRateLimits = false
	}

	set(payload, req.Message, "data", "message")
	set(payload, req.Title, "data", "title")
	set(payload, req.RegistrationInfo.WebhookID, "data", "webhook_id")
}
