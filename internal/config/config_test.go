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

package config

import (
	"context"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxNotificationsPerDay != 500 {
		t.Errorf("MaxNotificationsPerDay = %d, want 500", c.MaxNotificationsPerDay)
	}
	if c.Region != "us-central1" {
		t.Errorf("Region = %q, want us-central1", c.Region)
	}
	if c.Port != "8080" {
		t.Errorf("Port = %q, want 8080", c.Port)
	}
	if c.UseClusterKV() {
		t.Error("UseClusterKV() = true with no VALKEY_HOST/PORT set")
	}
}

func TestLoadRegionLowercased(t *testing.T) {
	t.Setenv("REGION", "US-CENTRAL1")
	c, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Region != "us-central1" {
		t.Errorf("Region = %q, want lowercased us-central1", c.Region)
	}
}

func TestUseClusterKVRequiresBoth(t *testing.T) {
	t.Setenv("VALKEY_HOST", "localhost")
	c, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.UseClusterKV() {
		t.Error("UseClusterKV() = true with only VALKEY_HOST set")
	}

	t.Setenv("VALKEY_PORT", "6379")
	c, err = Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.UseClusterKV() {
		t.Error("UseClusterKV() = false with both VALKEY_HOST and VALKEY_PORT set")
	}
}
