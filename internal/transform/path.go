/*
 * Copyright 2024 Jonas Kaninda
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package transform

import (
	"strconv"
	"strings"
)

// Paths address values inside decoded JSON documents (map[string]any, []any).
// Segments are separated by dots; a numeric segment indexes an array.
// Walking never panics: a missing or wrong-typed segment makes the call a no-op.

func segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func arrayIndex(seg string, length int) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

func child(node any, seg string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[seg]
		return v, ok
	case []any:
		i, ok := arrayIndex(seg, len(n))
		if !ok {
			return nil, false
		}
		return n[i], true
	default:
		return nil, false
	}
}

// Get returns the value stored at path.
func Get(root any, path string) (any, bool) {
	segs := segments(path)
	if len(segs) == 0 {
		return nil, false
	}
	cur := root
	for _, seg := range segs {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// Set writes value at path, creating intermediate objects as needed. A primitive
// found on the way is replaced by an object. Out-of-range array indexes are not
// created: Set reports false and leaves the document untouched.
func Set(root any, path string, value any) bool {
	segs := segments(path)
	if len(segs) == 0 || !isContainer(root) {
		return false
	}
	// Validate array hops first so a failed write leaves no partial objects behind.
	if !writable(root, segs) {
		return false
	}
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		switch n := cur.(type) {
		case map[string]any:
			next, ok := n[seg]
			if !ok || !isContainer(next) {
				next = map[string]any{}
				n[seg] = next
			}
			cur = next
		case []any:
			i, _ := arrayIndex(seg, len(n))
			next := n[i]
			if !isContainer(next) {
				next = map[string]any{}
				n[i] = next
			}
			cur = next
		}
	}
	last := segs[len(segs)-1]
	switch n := cur.(type) {
	case map[string]any:
		n[last] = value
	case []any:
		i, _ := arrayIndex(last, len(n))
		n[i] = value
	}
	return true
}

func writable(root any, segs []string) bool {
	cur := root
	for _, seg := range segs {
		switch n := cur.(type) {
		case map[string]any:
			next, ok := n[seg]
			if !ok || !isContainer(next) {
				return true
			}
			cur = next
		case []any:
			i, ok := arrayIndex(seg, len(n))
			if !ok {
				return false
			}
			if !isContainer(n[i]) {
				return true
			}
			cur = n[i]
		}
	}
	return true
}

// Delete removes the value at path. Array elements are nulled rather than removed
// so sibling indexes keep their positions.
func Delete(root any, path string) bool {
	segs := segments(path)
	if len(segs) == 0 {
		return false
	}
	parent := root
	if len(segs) > 1 {
		p, ok := Get(root, strings.Join(segs[:len(segs)-1], "."))
		if !ok {
			return false
		}
		parent = p
	}
	last := segs[len(segs)-1]
	switch n := parent.(type) {
	case map[string]any:
		if _, ok := n[last]; !ok {
			return false
		}
		delete(n, last)
		return true
	case []any:
		i, ok := arrayIndex(last, len(n))
		if !ok {
			return false
		}
		n[i] = nil
		return true
	}
	return false
}
