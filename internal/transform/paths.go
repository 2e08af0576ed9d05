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

import "strconv"

// ensure walks path from root, creating map[string]any nodes as needed, and
// returns the leaf map. A non-map value already at an intermediate segment
// is overwritten — callers only ever ensure paths they also control the
// shape of.
func ensure(root Payload, path ...string) Payload {
	node := root
	for _, seg := range path {
		child, ok := node[seg].(Payload)
		if !ok {
			child = Payload{}
			node[seg] = child
		}
		node = child
	}
	return node
}

// set writes value at path, creating intermediate maps as needed.
func set(root Payload, value any, path ...string) {
	if len(path) == 0 {
		return
	}
	parent := ensure(root, path[:len(path)-1]...)
	parent[path[len(path)-1]] = value
}

// get reads the value at path, reporting whether every segment resolved.
func get(root Payload, path ...string) (any, bool) {
	node := any(root)
	for _, seg := range path {
		m, ok := node.(Payload)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		node = v
	}
	return node, true
}

// getMap is get specialized to the common case of reading a nested map.
func getMap(root Payload, path ...string) (Payload, bool) {
	v, ok := get(root, path...)
	if !ok {
		return nil, false
	}
	m, ok := v.(Payload)
	return m, ok
}

// del removes the value at path if its parent exists.
func del(root Payload, path ...string) {
	if len(path) == 0 {
		return
	}
	parent, ok := getMap(root, path[:len(path)-1]...)
	if !ok {
		return
	}
	delete(parent, path[len(path)-1])
}

// has reports whether path resolves to any value (including a false/zero
// one) — used for the many "presence-gated" fields in spec.md §4.3.
func has(root Payload, path ...string) bool {
	_, ok := get(root, path...)
	return ok
}

// stringVal reads a string at path, defaulting to "".
func stringVal(root Payload, path ...string) string {
	v, ok := get(root, path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// toNumber coerces common JSON-decoded numeric shapes (float64 from
// encoding/json, int, int64, string) to a float64. ok is false if v isn't
// numeric in any recognized shape.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// cloneShallow copies m one level deep; values are shared, not deep-copied.
// Used everywhere a passthrough subtree from the request must not alias the
// request's own map (§9: "Build(req) never mutates req").
func cloneShallow(m map[string]any) Payload {
	out := make(Payload, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
