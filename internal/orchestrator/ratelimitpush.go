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

package orchestrator

import (
	"fmt"
	"time"

	"github.com/home-assistant/fcm-push-gateway/internal/transform"
)

// buildRateLimitPush assembles the fixed one-shot "you are now rate
// limited" payload described in spec.md §4.4: sent exactly once per
// threshold crossing, never counted against the quota itself.
func buildRateLimitPush(token string, maximum int64, resetsAt time.Time) transform.Payload {
	title := "Notifications Rate Limited"
	body := fmt.Sprintf("You have reached your daily limit of %d notifications.", maximum)

	return transform.Payload{
		"token": token,
		"notification": transform.Payload{
			"title": title,
			"body":  body,
		},
		"android": transform.Payload{
			"notification": transform.Payload{
				"title_loc_key": "rate_limit_notification.title",
				"body_loc_key":  "rate_limit_notification.body",
			},
		},
		"apns": transform.Payload{
			"payload": transform.Payload{
				"aps": transform.Payload{
					"alert": transform.Payload{
						"title":         title,
						"body":          body,
						"title-loc-key": "rate_limit_notification.title",
						"loc-key":       "rate_limit_notification.body",
					},
				},
			},
		},
		"data": transform.Payload{
			"rateLimited":            "true",
			"maxNotificationsPerDay": maximum,
			"resetsAt":               resetsAt.Format(time.RFC3339),
		},
		"fcm_options": transform.Payload{
			"analytics_label": "rateLimitNotification",
		},
	}
}
