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

// pushload is a tiny, dependency-free HTTP load generator for exercising
// the rate limiter under skewed per-token traffic, adapted from the
// teacher's tools/http-loadgen for POST-JSON notification bodies instead of
// GET query-param checks.
//
// Modes:
//   - single: send N requests for a single push token
//   - zipf:   deterministic 80/20-ish skew: a hot token most of the time,
//     round-robining through a pool of cold tokens the rest of the time
//
// Usage examples:
//
//	pushload -base=http://127.0.0.1:8080 -mode=single -token=hot:1 -n=5000 -c=16
//	pushload -base=http://127.0.0.1:8080 -mode=zipf -hot_token=hot:1 -cold_tokens=50 -n=8000 -c=16
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type modeType string

const (
	modeSingle modeType = "single"
	modeZipf   modeType = "zipf"
)

func main() {
	var (
		base       = flag.String("base", "http://127.0.0.1:8080", "Base URL including scheme and host")
		path       = flag.String("path", "/sendPushNotification", "Request path")
		modeS      = flag.String("mode", string(modeSingle), "Mode: single|zipf")
		token      = flag.String("token", "load-token:1", "Push token for single mode")
		hotToken   = flag.String("hot_token", "hot-token:1", "Hot push token for zipf mode")
		coldN      = flag.Int("cold_tokens", 50, "Number of cold tokens to round-robin in zipf mode")
		appID      = flag.String("app_id", "com.example.loadtest", "registration_info.app_id sent with each request")
		N          = flag.Int("n", 5000, "Total requests to send")
		conc       = flag.Int("c", 8, "Number of concurrent workers")
		hotEvery   = flag.Int("hot_every", 5, "Zipf-like skew period (all but 1 of each period go to hot; minimum 2)")
		timeout    = flag.Duration("timeout", 30*time.Second, "Overall timeout for the loadgen run")
		connIdle   = flag.Duration("idle_timeout", 30*time.Second, "HTTP idle connection timeout")
		maxIdle    = flag.Int("max_idle", 256, "Max idle connections total")
		maxIdlePer = flag.Int("max_idle_per_host", 256, "Max idle connections per host")
	)
	flag.Parse()

	m := modeType(strings.ToLower(*modeS))
	if m != modeSingle && m != modeZipf {
		fmt.Fprintf(os.Stderr, "unknown -mode=%s (want single|zipf)\n", *modeS)
		os.Exit(2)
	}
	if *N <= 0 || *conc <= 0 {
		fmt.Fprintln(os.Stderr, "-n and -c must be > 0")
		os.Exit(2)
	}
	if m == modeZipf {
		if *coldN <= 0 {
			fmt.Fprintln(os.Stderr, "-cold_tokens must be > 0 in zipf mode")
			os.Exit(2)
		}
		if *hotEvery < 2 {
			*hotEvery = 2
		}
	}

	baseURL := strings.TrimRight(*base, "/")
	p := *path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	fullPath := baseURL + p

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        *maxIdle,
		MaxIdleConnsPerHost: *maxIdlePer,
		IdleConnTimeout:     *connIdle,
	}
	client := &http.Client{Transport: tr, Timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	var done, statusOK, statusRateLimited, statusOther int64

	worker := func(id, count int) {
		defer atomic.AddInt64(&done, int64(count))
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			tok := pickToken(m, i, id, *token, *hotToken, *coldN, *hotEvery)
			body := fmt.Sprintf(
				`{"push_token":%q,"message":"load test","registration_info":{"app_id":%q}}`,
				tok, *appID,
			)
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, fullPath, bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err != nil {
				time.Sleep(200 * time.Microsecond)
				continue
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&statusOK, 1)
			case http.StatusTooManyRequests:
				atomic.AddInt64(&statusRateLimited, 1)
			default:
				atomic.AddInt64(&statusOther, 1)
			}
		}
	}

	per := *N / *conc
	rem := *N - per**conc
	var wg sync.WaitGroup
	wg.Add(*conc)
	for w := 0; w < *conc; w++ {
		count := per
		if w == *conc-1 {
			count += rem
		}
		go func(id, n int) {
			defer wg.Done()
			worker(id, n)
		}(w, count)
	}
	wg.Wait()

	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	ops := float64(*N) / elapsed.Seconds()
	fmt.Printf(
		"PushLoad: mode=%s N=%d c=%d go=%d Duration=%s Throughput=%.0f req/s ok=%d rateLimited=%d other=%d\n",
		m, *N, *conc, runtime.GOMAXPROCS(0), elapsed.Truncate(time.Millisecond), ops,
		statusOK, statusRateLimited, statusOther,
	)
}

// pickToken implements the deterministic hot/cold skew: in zipf mode,
// (i+id)%hotEvery != 0 picks the hot token; otherwise it round-robins
// through coldN synthetic cold tokens.
func pickToken(m modeType, i, id int, single, hot string, coldN, hotEvery int) string {
	if m == modeSingle {
		return single
	}
	if (i+id)%hotEvery != 0 {
		return hot
	}
	idx := ((i + id) % coldN) + 1
	return fmt.Sprintf("cold-%d:1", idx)
}
