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
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/home-assistant/fcm-push-gateway/internal/transform"
)

// toMessage adapts a transform.Payload (the raw, FCM-HTTP-v1-shaped map
// this service builds) into the typed *messaging.Message the SDK's Send
// requires. It is intentionally narrow: it covers every field the
// transformer package actually populates, not the full FCM wire schema.
func toMessage(payload transform.Payload) (*messaging.Message, error) {
	msg := &messaging.Message{}

	if token, ok := payload["token"].(string); ok {
		msg.Token = token
	}

	if n, ok := payload["notification"].(map[string]any); ok {
		msg.Notification = &messaging.Notification{
			Title: stringField(n, "title"),
			Body:  stringField(n, "body"),
		}
	}

	if d, ok := payload["data"].(map[string]any); ok {
		msg.Data = stringifyMap(d)
	}

	if a, ok := payload["android"].(map[string]any); ok {
		msg.Android = toAndroidConfig(a)
	}

	if w, ok := payload["webpush"].(map[string]any); ok {
		msg.Webpush = toWebpushConfig(w)
	}

	if apns, ok := payload["apns"].(map[string]any); ok {
		cfg, err := toAPNSConfig(apns)
		if err != nil {
			return nil, err
		}
		msg.APNS = cfg
	}

	if opts, ok := payload["fcm_options"].(map[string]any); ok {
		msg.FCMOptions = &messaging.FCMOptions{AnalyticsLabel: stringField(opts, "analytics_label")}
	}

	return msg, nil
}

func toAndroidConfig(a map[string]any) *messaging.AndroidConfig {
	cfg := &messaging.AndroidConfig{Priority: stringField(a, "priority")}
	if ttl, ok := a["ttl"]; ok {
		switch v := ttl.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				cfg.TTL = &d
			}
		case int:
			d := time.Duration(v) * time.Second
			cfg.TTL = &d
		}
	}
	return cfg
}

func toWebpushConfig(w map[string]any) *messaging.WebpushConfig {
	cfg := &messaging.WebpushConfig{}
	if headers, ok := w["headers"].(map[string]any); ok {
		cfg.Headers = stringifyMap(headers)
	}
	if data, ok := w["data"].(map[string]any); ok {
		cfg.Data = stringifyMap(data)
	}
	return cfg
}

func toAPNSConfig(apns map[string]any) (*messaging.APNSConfig, error) {
	cfg := &messaging.APNSConfig{}
	if headers, ok := apns["headers"].(map[string]any); ok {
		cfg.Headers = stringifyMap(headers)
	}
	payload, ok := apns["payload"].(map[string]any)
	if !ok {
		return cfg, nil
	}

	apnsPayload := &messaging.APNSPayload{CustomData: map[string]interface{}{}}
	for k, v := range payload {
		if k == "aps" {
			continue
		}
		apnsPayload.CustomData[k] = v
	}
	if apsRaw, ok := payload["aps"].(map[string]any); ok {
		aps, err := toAps(apsRaw)
		if err != nil {
			return nil, err
		}
		apnsPayload.Aps = aps
	}
	cfg.Payload = apnsPayload
	return cfg, nil
}

func toAps(raw map[string]any) (*messaging.Aps, error) {
	aps := &messaging.Aps{}

	if alert, ok := raw["alert"].(map[string]any); ok {
		aps.Alert = &messaging.ApsAlert{
			Title:    stringField(alert, "title"),
			Subtitle: stringField(alert, "subtitle"),
			Body:     stringField(alert, "body"),
		}
	}

	if badge, ok := raw["badge"]; ok {
		if n, ok := toInt(badge); ok {
			aps.Badge = &n
		}
	}

	if sound, ok := raw["sound"]; ok {
		switch s := sound.(type) {
		case string:
			aps.Sound = s
		case map[string]any:
			critical := 0
			if v, ok := s["critical"].(int); ok {
				critical = v
			}
			volume, _ := s["volume"].(float64)
			aps.Sound = &messaging.CriticalSound{
				Critical: critical != 0,
				Name:     stringField(s, "name"),
				Volume:   volume,
			}
		default:
			return nil, fmt.Errorf("gateway: unrecognized aps.sound shape %T", sound)
		}
	}

	if v, ok := raw["contentAvailable"].(bool); ok {
		aps.ContentAvailable = v
	}
	if v, ok := raw["mutableContent"].(bool); ok {
		aps.MutableContent = v
	}
	aps.Category = stringField(raw, "category")
	if v, ok := raw["thread-id"].(string); ok {
		aps.ThreadID = v
	}

	custom := map[string]interface{}{}
	for k, v := range raw {
		switch k {
		case "alert", "badge", "sound", "contentAvailable", "mutableContent", "category", "thread-id":
			continue
		default:
			custom[k] = v
		}
	}
	if len(custom) > 0 {
		aps.CustomData = custom
	}

	return aps, nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func stringifyMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
