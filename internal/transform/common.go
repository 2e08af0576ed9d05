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

// seed builds the payload common to all three variants: notification.body,
// the optional title mirrored into both notification.title and
// apns.payload.aps.alert.title, the recognized passthrough subtrees of
// req.Data for this variant, and the apns_headers top-level rename.
// passthroughKeys lists which of android/apns/data/webpush this variant
// copies verbatim; the ios-v1 and legacy variants pass {"apns","data"} and
// {"android","apns","data","webpush"} respectively, android-v1 passes none
// (it builds its own data tree field by field).
func seed(req NotificationRequest, label string, passthroughKeys ...string) Payload {
	payload := Payload{
		"token": req.PushToken,
		"fcm_options": Payload{
			"analytics_label": label,
		},
	}
	set(payload, req.Message, "notification", "body")
	if req.Title != "" {
		set(payload, req.Title, "notification", "title")
		set(payload, req.Title, "apns", "payload", "aps", "alert", "title")
	}
	for _, key := range passthroughKeys {
		if sub, ok := req.Data[key].(map[string]any); ok {
			set(payload, cloneDeep(sub), key)
		}
	}
	if headers, ok := req.Data["apns_headers"].(map[string]any); ok {
		set(payload, cloneDeep(headers), "apns", "headers")
	}
	return payload
}

// cloneDeep copies m and every map nested under it, so later writes into the
// payload (apns-push-type, aps fields) never reach a map owned by req.Data.
// Non-map values are shared.
func cloneDeep(m map[string]any) Payload {
	out := make(Payload, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = cloneDeep(sub)
			continue
		}
		out[k] = v
	}
	return out
}

// normalizeSound applies the universal sound-normalization rule: a literal
// "none" (any case) removes aps.sound entirely; an object form coerces
// volume to float64 and critical to an int 0/1, and forces
// updateRateLimits=false when a non-zero-volume critical sound is present
// (critical alerts bypass the user's mute switch, so they must not count
// toward the quota the same way a silent background push would).
func normalizeSound(payload Payload, updateRateLimits *bool) {
	aps, ok := getMap(payload, "apns", "payload", "aps")
	if !ok {
		return
	}
	sound, ok := aps["sound"]
	if !ok {
		return
	}
	if s, ok := sound.(string); ok {
		if strings.EqualFold(s, "none") {
			delete(aps, "sound")
		}
		return
	}
	obj, ok := sound.(map[string]any)
	if !ok {
		return
	}
	out := cloneShallow(obj)
	volume := 0.0
	if v, ok := toNumber(out["volume"]); ok {
		volume = v
	}
	out["volume"] = volume
	critical := 0
	if c, ok := out["critical"]; ok {
		if b, ok := c.(bool); ok && b {
			critical = 1
		} else if n, ok := toNumber(c); ok && n != 0 {
			critical = 1
		}
	}
	out["critical"] = critical
	aps["sound"] = out
	if critical != 0 && volume > 0 {
		*updateRateLimits = false
	}
}

// normalizeBadge coerces aps.badge, if present, to a number.
func normalizeBadge(payload Payload) {
	aps, ok := getMap(payload, "apns", "payload", "aps")
	if !ok {
		return
	}
	v, ok := aps["badge"]
	if !ok {
		return
	}
	if n, ok := toNumber(v); ok {
		aps["badge"] = n
	}
}

// setAPNSPushType sets the apns-push-type header from aps.contentAvailable,
// per spec.md §4.3.
func setAPNSPushType(payload Payload) {
	aps, _ := getMap(payload, "apns", "payload", "aps")
	pushType := "alert"
	if aps != nil {
		if v, ok := aps["contentAvailable"].(bool); ok && v {
			pushType = "background"
		}
	}
	set(payload, pushType, "apns", "headers", "apns-push-type")
}

// reflectCategory applies the needsCategory/needsMutableContent
// post-processing invariants shared by every iOS-shaped payload path.
func reflectCategory(payload Payload, needsCategory, needsMutableContent bool) {
	aps := ensure(payload, "apns", "payload", "aps")
	if needsCategory {
		if cat, ok := aps["category"]; ok {
			if s, ok := cat.(string); ok {
				aps["category"] = strings.ToUpper(s)
			}
		} else {
			aps["category"] = "DYNAMIC"
		}
	} else if cat, ok := aps["category"].(string); ok {
		aps["category"] = strings.ToUpper(cat)
	}
	if needsMutableContent {
		aps["mutableContent"] = true
	}
}
