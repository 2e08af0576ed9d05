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
	"strings"
	"sync"
	"time"
)

// stripedCounter is a single (route, outcome) slot's volatile vector: the
// count of Record calls not yet flushed into requestsTotal. It borrows the
// scalar/vector split of the teacher's VSA described in DESIGN.md (a stable
// base plus an in-memory delta), stripped down to the one op this
// accumulator needs: accumulate, then drain.
type stripedCounter struct {
	mu     sync.Mutex
	vector int64
}

func (c *stripedCounter) add(n int64) {
	c.mu.Lock()
	c.vector += n
	c.mu.Unlock()
}

// drain reads the accumulated vector and resets it to zero, returning the
// value to flush. Committing and reading happen under the same lock so a
// concurrent Record between the two can't be observed and then dropped.
func (c *stripedCounter) drain() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.vector
	c.vector = 0
	return v
}

// Accumulator batches the hot-path per-(route,outcome) request increment
// instead of touching the Prometheus counter on every request, then
// periodically flushes the accumulated delta. Unlike the rate limiter
// (which needs every increment linearized and durable), losing or
// delaying a flush here has no correctness consequence — it only smooths
// metrics-export contention under heavy concurrent traffic to the same
// route.
type Accumulator struct {
	mu       sync.Mutex
	counters map[string]*stripedCounter
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewAccumulator starts a background flush loop at interval (typically a
// few hundred milliseconds). Call Close to stop it and flush any remainder.
func NewAccumulator(interval time.Duration) *Accumulator {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	a := &Accumulator{
		counters: make(map[string]*stripedCounter),
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go a.run()
	return a
}

func key(route, outcome string) string { return route + "|" + outcome }

// Record bumps the in-memory counter for (route, outcome) by one. Safe for
// high-concurrency hot-path use.
func (a *Accumulator) Record(route, outcome string) {
	a.mu.Lock()
	c, ok := a.counters[key(route, outcome)]
	if !ok {
		c = &stripedCounter{}
		a.counters[key(route, outcome)] = c
	}
	a.mu.Unlock()
	c.add(1)
}

func (a *Accumulator) run() {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.flush()
		case <-a.stop:
			a.flush()
			return
		}
	}
}

func (a *Accumulator) flush() {
	a.mu.Lock()
	snapshot := make(map[string]*stripedCounter, len(a.counters))
	for k, c := range a.counters {
		snapshot[k] = c
	}
	a.mu.Unlock()

	for k, c := range snapshot {
		n := c.drain()
		if n <= 0 {
			continue
		}
		route, outcome := splitKey(k)
		requestsTotal.WithLabelValues(route, outcome).Add(float64(n))
	}
}

func splitKey(k string) (route, outcome string) {
	i := strings.LastIndex(k, "|")
	if i < 0 {
		return k, ""
	}
	return k[:i], k[i+1:]
}

// Close stops the flush loop after a final flush.
func (a *Accumulator) Close() {
	close(a.stop)
	<-a.done
}
