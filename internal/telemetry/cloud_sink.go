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

package telemetry

import (
	"context"

	"cloud.google.com/go/logging"
)

// defaultResourceType mirrors spec.md §6: "global" by default, or
// "cloud_function"/"cloud_run" when hosted there.
const defaultResourceType = "global"

// CloudLoggingSink writes ErrorEntry records to Google Cloud Logging. One
// logging.Logger per step is cached since the log name is step-scoped
// (errors-<step>).
type CloudLoggingSink struct {
	client       *logging.Client
	resourceType string
	loggers      map[string]*logging.Logger
}

// NewCloudLoggingSink wires a sink on top of an already-initialized
// logging.Client (constructed in cmd/pushgateway against
// Config.FirestoreProjectID or a dedicated logging project).
func NewCloudLoggingSink(client *logging.Client, resourceType string) *CloudLoggingSink {
	if resourceType == "" {
		resourceType = defaultResourceType
	}
	return &CloudLoggingSink{client: client, resourceType: resourceType, loggers: map[string]*logging.Logger{}}
}

func (s *CloudLoggingSink) loggerFor(step string) *logging.Logger {
	name := "errors-" + step
	if l, ok := s.loggers[name]; ok {
		return l
	}
	l := s.client.Logger(name)
	s.loggers[name] = l
	return l
}

// Write emits entry at severity ERROR with the labels spec.md §6 calls for.
func (s *CloudLoggingSink) Write(ctx context.Context, entry ErrorEntry) error {
	labels := map[string]string{
		"step":          entry.Step,
		"errorType":     entry.ErrorType,
		"errorCode":     entry.ErrorCode,
		"requestBody":   entry.RequestBody,
		"notification":  entry.Notification,
	}
	for k, v := range entry.RegistrationInfo {
		labels["registration_info."+k] = v
	}

	s.loggerFor(entry.Step).Log(logging.Entry{
		Timestamp: entry.Timestamp,
		Severity:  logging.Error,
		Payload:   entry.Message,
		Labels:    labels,
		Resource:  &logging.Resource{Type: s.resourceType},
	})
	return nil
}
