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

// BuildLegacy is the legacy variant's Build function (spec.md §4.3): the
// superset of the android-v1 and ios-v1 branches, plus the
// registration_info.webhook_id passthrough into apns.payload.webhook_id.
func BuildLegacy(req NotificationRequest) (bool, Payload) {
	payload := seed(req, labelLegacy, "android", "apns", "data", "webpush")
	updateRateLimits := true

	switch {
	case isHomeAssistantIOS(req):
		applyHomeAssistantIOS(payload, req, &updateRateLimits)
	case req.RegistrationInfo.AppID == homeAssistantAndID:
		applyHomeAssistantAndroid(payload, req, &updateRateLimits)
	}

	if req.RegistrationInfo.WebhookID != "" {
		set(payload, req.RegistrationInfo.WebhookID, "apns", "payload", "webhook_id")
	}

	return updateRateLimits, payload
}
