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

// Package config parses the process environment of spec.md §6 into a typed
// Config, using github.com/sethvargo/go-envconfig struct tags the way the
// Cloud Run/Cloud Functions family of services in this corpus does.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config is the full set of environment knobs this process reads at
// startup. Backend selection happens once, at wiring time: ValkeyHost and
// ValkeyPort both present selects the cluster KV backend; otherwise the
// document store backend is used, per spec.md §6.
type Config struct {
	MaxNotificationsPerDay int64  `env:"MAX_NOTIFICATIONS_PER_DAY, default=500"`
	Region                 string `env:"REGION, default=us-central1"`
	Debug                  bool   `env:"DEBUG, default=false"`
	Port                   string `env:"PORT, default=8080"`

	ValkeyHost string `env:"VALKEY_HOST"`
	ValkeyPort string `env:"VALKEY_PORT"`
	ValkeyTLS  bool   `env:"VALKEY_TLS, default=false"`

	FirestoreProjectID    string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreEmulatorHost string `env:"FIRESTORE_EMULATOR_HOST"`
	FirebaseProjectID     string `env:"FIREBASE_PROJECT_ID"`

	MetricsAddr string `env:"METRICS_ADDR"`
	ErrorLogDir string `env:"ERROR_LOG_DIR, default=."`
}

// Load reads the process environment into a Config, applying defaults and
// lower-casing Region per spec.md §6 ("string, lowercase").
func Load(ctx context.Context) (Config, error) {
	var c Config
	if err := envconfig.Process(ctx, &c); err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}
	c.Region = strings.ToLower(c.Region)
	return c, nil
}

// UseClusterKV reports whether the cluster KV (Valkey/Redis) backend should
// be wired instead of the document store, per spec.md §6's selector.
func (c Config) UseClusterKV() bool {
	return c.ValkeyHost != "" && c.ValkeyPort != ""
}

// UseCloudLogging reports whether a Cloud Logging project is configured;
// when false, cmd/pushgateway falls back to the dependency-free FileSink.
func (c Config) UseCloudLogging() bool {
	return c.FirestoreProjectID != "" || c.FirebaseProjectID != ""
}
