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

// Package main wires the FCM push gateway: it reads configuration, selects
// and connects the rate-limit store backend, builds the FCM and structured
// logging clients, and serves the five HTTP endpoints of spec.md §6 until a
// termination signal asks it to drain.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"cloud.google.com/go/firestore"
	"cloud.google.com/go/logging"
	redis "github.com/redis/go-redis/v9"

	"github.com/home-assistant/fcm-push-gateway/internal/config"
	"github.com/home-assistant/fcm-push-gateway/internal/gateway"
	"github.com/home-assistant/fcm-push-gateway/internal/httpapi"
	"github.com/home-assistant/fcm-push-gateway/internal/orchestrator"
	"github.com/home-assistant/fcm-push-gateway/internal/ratelimit"
	"github.com/home-assistant/fcm-push-gateway/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	gw, err := buildGateway(ctx, cfg)
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	errorSink, closeSink, err := buildErrorSink(ctx, cfg)
	if err != nil {
		log.Fatalf("error sink: %v", err)
	}
	defer closeSink()

	engine := ratelimit.NewEngine(store, cfg.MaxNotificationsPerDay)
	orch := orchestrator.New(engine, gw, errorSink)
	srv := httpapi.NewServer(orch)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = newMetricsServer(cfg.MetricsAddr)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	go func() {
		if cfg.Debug {
			log.Printf("pushgateway listening on :%s (region=%s)", cfg.Port, cfg.Region)
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen on :%s: %v", cfg.Port, err)
		}
	}()

	<-ctx.Done()
	log.Println("draining in-flight requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	log.Println("shut down cleanly")
}

// kvConnectMaxAttempts bounds the startup retry loop in buildStore. Past
// this many failed pings the gateway gives up and exits rather than retry
// forever against a backend that is never coming up.
const kvConnectMaxAttempts = 6

// kvConnectBackoffCap is the per-attempt ceiling spec.md §7 sets for the
// only retryable state at the system level: startup of the KV connection.
const kvConnectBackoffCap = 2 * time.Second

// buildStore selects the cluster KV backend when VALKEY_HOST/VALKEY_PORT
// are both set, the document store otherwise, per spec.md §6. Connecting
// the cluster backend retries the initial ping with bounded exponential
// backoff (base 100ms, doubling, capped at kvConnectBackoffCap per
// attempt) since a Valkey cluster can still be coming up when the gateway
// starts.
func buildStore(ctx context.Context, cfg config.Config) (ratelimit.Store, func(), error) {
	if cfg.UseClusterKV() {
		opts := &redis.Options{Addr: fmt.Sprintf("%s:%s", cfg.ValkeyHost, cfg.ValkeyPort)}
		client := redis.NewClient(opts)
		if err := pingWithBackoff(ctx, client); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping valkey: %w", err)
		}
		return ratelimit.NewClusterStore(client), func() { _ = client.Close() }, nil
	}

	fsClient, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("firestore client: %w", err)
	}
	return ratelimit.NewDocumentStore(fsClient), func() { _ = fsClient.Close() }, nil
}

// pingWithBackoff retries client.Ping with delay = 100ms * 2^attempt,
// capped at kvConnectBackoffCap, up to kvConnectMaxAttempts times.
func pingWithBackoff(ctx context.Context, client *redis.Client) error {
	const base = 100 * time.Millisecond
	var err error
	for attempt := 0; attempt < kvConnectMaxAttempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return nil
		}
		if attempt == kvConnectMaxAttempts-1 {
			break
		}
		delay := base * time.Duration(1<<attempt)
		if delay > kvConnectBackoffCap {
			delay = kvConnectBackoffCap
		}
		log.Printf("valkey ping attempt %d failed: %v; retrying in %s", attempt+1, err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// buildGateway wires the FCM HTTP v1 messaging client behind a firebase.App.
func buildGateway(ctx context.Context, cfg config.Config) (gateway.Gateway, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID})
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}
	return gateway.NewFCMGateway(client), nil
}

// buildErrorSink wires Cloud Logging when a GCP project is configured;
// otherwise it falls back to the dependency-free FileSink so local
// development and CI never need live GCP credentials.
func buildErrorSink(ctx context.Context, cfg config.Config) (telemetry.ErrorSink, func(), error) {
	if !cfg.UseCloudLogging() {
		path := cfg.ErrorLogDir + "/errors.jsonl"
		sink, err := telemetry.NewFileSink(path)
		if err != nil {
			return nil, nil, fmt.Errorf("file sink %s: %w", path, err)
		}
		return sink, func() { _ = sink.Close() }, nil
	}

	project := cfg.FirestoreProjectID
	if project == "" {
		project = cfg.FirebaseProjectID
	}
	client, err := logging.NewClient(ctx, project)
	if err != nil {
		return nil, nil, fmt.Errorf("logging client: %w", err)
	}
	resourceType := "global"
	if cfg.Region != "" {
		resourceType = "cloud_run"
	}
	return telemetry.NewCloudLoggingSink(client, resourceType), func() { _ = client.Close() }, nil
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	return &http.Server{Addr: addr, Handler: mux}
}
