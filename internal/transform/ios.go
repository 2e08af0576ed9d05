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

import "strings"

// BuildIOSV1 is the ios-v1 variant's Build function (spec.md §4.3).
func BuildIOSV1(req NotificationRequest) (bool, Payload) {
	payload := seed(req, labelIOSV1, "apns", "data")
	updateRateLimits := true
	applyHomeAssistantIOS(payload, req, &updateRateLimits)
	return updateRateLimits, payload
}

// isHomeAssistantIOS reports whether app_id identifies the Home Assistant
// iOS app, per spec.md §4.3 ("triggered when app_id contains
// io.robbie.HomeAssistant").
func isHomeAssistantIOS(req NotificationRequest) bool {
	return strings.Contains(req.RegistrationInfo.AppID, homeAssistantIOSID)
}

// applyHomeAssistantIOS runs the full Home Assistant iOS branch: command
// overloads take priority over the non-command data-driven path. Sound,
// badge and apns-push-type normalization run afterward on every path; the
// category and mutableContent rules run only at the end of the non-command
// path (reflectCategory in applyNonCommandIOS).
func applyHomeAssistantIOS(payload Payload, req NotificationRequest, updateRateLimits *bool) {
	if !isHomeAssistantIOS(req) {
		normalizeSound(payload, updateRateLimits)
		normalizeBadge(payload)
		setAPNSPushType(payload)
		return
	}

	if applyCommandOverload(payload, req, updateRateLimits) {
		normalizeSound(payload, updateRateLimits)
		normalizeBadge(payload)
		setAPNSPushType(payload)
		return
	}

	applyNonCommandIOS(payload, req, updateRateLimits)
	normalizeSound(payload, updateRateLimits)
	normalizeBadge(payload)
	setAPNSPushType(payload)
}

// resetAps drops whatever apns.payload.aps seed already built (e.g. the
// alert.title mirrored from req.Title) and returns a fresh, empty aps map
// for a command overload to populate. spec.md §4.3: each command overload
// "replaces apns.payload.aps" — it does not layer onto the non-command
// seed.
func resetAps(payload Payload) Payload {
	del(payload, "apns", "payload", "aps")
	return ensure(payload, "apns", "payload", "aps")
}

// applyCommandOverload handles the six command-message overloads of
// spec.md §4.3. It reports whether req.Message matched one. Every overload
// except delete_alert is a silent push HA delivers in the background, so
// each of those sets aps.contentAvailable = true; setAPNSPushType
// (common.go) turns that into apns-push-type: "background". delete_alert
// keeps the seeded aps and only strips its alert fields and sound.
func applyCommandOverload(payload Payload, req NotificationRequest, updateRateLimits *bool) bool {
	switch req.Message {
	case "request_location_update", "request_location_updates":
		*updateRateLimits = false
		delete(payload, "notification")
		aps := resetAps(payload)
		aps["contentAvailable"] = true
		set(payload, "request_location_update", "apns", "payload", "homeassistant", "command")
		return true

	case "clear_badge":
		*updateRateLimits = false
		delete(payload, "notification")
		aps := resetAps(payload)
		aps["contentAvailable"] = true
		aps["badge"] = 0
		set(payload, "clear_badge", "apns", "payload", "homeassistant", "command")
		return true

	case "clear_notification":
		*updateRateLimits = false
		delete(payload, "notification")
		aps := resetAps(payload)
		aps["contentAvailable"] = true
		set(payload, "clear_notification", "apns", "payload", "homeassistant", "command")
		if tag, ok := req.Data["tag"]; ok {
			set(payload, tag, "apns", "payload", "homeassistant", "tag")
		}
		if headers, ok := getMap(payload, "apns", "headers"); ok {
			if collapseID, ok := headers["apns-collapse-id"]; ok {
				set(payload, collapseID, "apns", "payload", "homeassistant", "collapseId")
				delete(headers, "apns-collapse-id")
			}
		}
		return true

	case "update_complications":
		*updateRateLimits = false
		delete(payload, "notification")
		aps := resetAps(payload)
		aps["contentAvailable"] = true
		set(payload, "update_complications", "apns", "payload", "homeassistant", "command")
		return true

	case "update_widgets":
		*updateRateLimits = false
		delete(payload, "notification")
		aps := resetAps(payload)
		aps["contentAvailable"] = true
		set(payload, "update_widgets", "apns", "payload", "homeassistant", "command")
		return true

	case "delete_alert":
		*updateRateLimits = false
		del(payload, "notification", "body")
		del(payload, "apns", "payload", "aps", "alert", "title")
		del(payload, "apns", "payload", "aps", "alert", "subtitle")
		del(payload, "apns", "payload", "aps", "alert", "body")
		del(payload, "apns", "payload", "aps", "sound")
		return true
	}
	return false
}

// apnsAttachmentContentTypes maps the attachment shorthands to their
// content-type, per spec.md §4.3.
var apnsAttachmentContentTypes = map[string]string{
	"video": "mpeg4",
	"image": "jpeg",
	"audio": "waveformaudio",
}

// applyNonCommandIOS processes the presence-gated data keys of the
// non-command Home Assistant iOS path.
func applyNonCommandIOS(payload Payload, req NotificationRequest, updateRateLimits *bool) {
	data := req.Data
	needsCategory := false
	needsMutableContent := false

	if subtitle, ok := data["subtitle"]; ok {
		set(payload, subtitle, "apns", "payload", "aps", "alert", "subtitle")
	}

	if push, ok := data["push"].(map[string]any); ok {
		aps := ensure(payload, "apns", "payload", "aps")
		for k, v := range push {
			aps[k] = v
		}
	}

	if actions, ok := data["actions"]; ok {
		set(payload, actions, "apns", "payload", "actions")
		needsCategory = true
	}

	applySound(payload, req)

	if entityID, ok := data["entity_id"]; ok {
		set(payload, entityID, "apns", "payload", "entity_id")
		needsCategory = true
		needsMutableContent = true
	}

	if actionData, ok := data["action_data"]; ok {
		set(payload, actionData, "apns", "payload", "homeassistant")
		needsCategory = true
	}

	if applyAttachment(payload, data) {
		needsCategory = true
		needsMutableContent = true
	}

	for _, key := range []string{"url", "shortcut", "presentation_options"} {
		if v, ok := data[key]; ok {
			set(payload, v, "apns", "payload", key)
		}
	}

	if tag, ok := data["tag"].(string); ok {
		set(payload, tag, "apns", "headers", "apns-collapse-id")
	}

	if group, ok := data["group"].(string); ok {
		set(payload, group, "apns", "payload", "aps", "thread-id")
	}

	reflectCategory(payload, needsCategory, needsMutableContent)
}

// applySound handles the sound / push.sound fallback and the 10.15
// filename-stripping quirk.
func applySound(payload Payload, req NotificationRequest) {
	sound, ok := req.Data["sound"]
	if !ok {
		if push, ok := req.Data["push"].(map[string]any); ok {
			sound, ok = push["sound"]
			if !ok {
				return
			}
		} else {
			return
		}
	}

	if strings.HasPrefix(req.RegistrationInfo.OSVersion, "10.15") {
		switch s := sound.(type) {
		case string:
			sound = stripExtension(s)
		case map[string]any:
			if name, ok := s["name"].(string); ok {
				out := cloneShallow(s)
				out["name"] = stripExtension(name)
				sound = out
			}
		}
	}
	set(payload, sound, "apns", "payload", "aps", "sound")
}

func stripExtension(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}

// applyAttachment handles data.attachment plus the video/image/audio
// shorthands. It reports whether any attachment was set.
func applyAttachment(payload Payload, data map[string]any) bool {
	attachment := Payload{}
	if existing, ok := data["attachment"].(map[string]any); ok {
		attachment = cloneShallow(existing)
	}
	for shorthand, contentType := range apnsAttachmentContentTypes {
		url, ok := data[shorthand]
		if !ok {
			continue
		}
		if _, exists := attachment["url"]; !exists {
			attachment["url"] = url
		}
		if _, exists := attachment["content-type"]; !exists {
			attachment["content-type"] = contentType
		}
	}
	if len(attachment) == 0 {
		return false
	}
	set(payload, attachment, "apns", "payload", "attachment")
	return true
}
