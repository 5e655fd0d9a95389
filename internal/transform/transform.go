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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/url"
)

// Rule renames the field From to To.
type Rule struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// RenameQuery moves every value of each rule's From parameter to To, replacing any
// existing To values. It reports whether q was modified.
func RenameQuery(q url.Values, rules []Rule) bool {
	changed := false
	for _, r := range rules {
		if r.From == r.To {
			continue
		}
		vals, ok := q[r.From]
		if !ok {
			continue
		}
		q[r.To] = vals
		delete(q, r.From)
		changed = true
	}
	return changed
}

// RenameBody applies rules to the top-level keys of a JSON object body.
// Arrays and scalars are left untouched.
func RenameBody(body any, rules []Rule) bool {
	obj, ok := body.(map[string]any)
	if !ok {
		return false
	}
	changed := false
	for _, r := range rules {
		if r.From == r.To {
			continue
		}
		v, ok := obj[r.From]
		if !ok {
			continue
		}
		obj[r.To] = v
		delete(obj, r.From)
		changed = true
	}
	return changed
}

// Rename moves the value at the dotted path from to the dotted path to. When the
// destination cannot be written the source is restored.
func Rename(doc any, from, to string) bool {
	if from == to {
		return false
	}
	v, ok := Get(doc, from)
	if !ok {
		return false
	}
	Delete(doc, from)
	if !Set(doc, to, v) {
		Set(doc, from, v)
		return false
	}
	return true
}

// TransformResponse applies rules to a JSON response body. Bodies that are not
// valid JSON, and bodies no rule applies to, are returned unchanged.
func TransformResponse(body []byte, rules []Rule) []byte {
	if len(rules) == 0 {
		return body
	}
	doc, err := DecodeJSON(body)
	if err != nil {
		return body
	}
	changed := false
	for _, r := range rules {
		if Rename(doc, r.From, r.To) {
			changed = true
		}
	}
	if !changed {
		return body
	}
	out, err := EncodeJSON(doc)
	if err != nil {
		return body
	}
	return out
}

// DecodeJSON decodes a single JSON document, keeping numbers as json.Number.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("transform: unexpected data after JSON document")
	}
	return v, nil
}

// EncodeJSON encodes v without HTML escaping or a trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// FormToObject converts url-encoded form values into a JSON object.
// Repeated keys become arrays.
func FormToObject(values url.Values) map[string]any {
	obj := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			obj[k] = vs[0]
			continue
		}
		arr := make([]any, len(vs))
		for i, v := range vs {
			arr[i] = v
		}
		obj[k] = arr
	}
	return obj
}
