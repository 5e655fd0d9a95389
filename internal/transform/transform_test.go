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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) any {
	t.Helper()
	v, err := DecodeJSON([]byte(s))
	require.NoError(t, err)
	return v
}

func TestGet(t *testing.T) {
	doc := mustDecode(t, `{"data":{"list":[{"id":1},{"id":2}],"name":"x"}}`)

	v, ok := Get(doc, "data.name")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	v, ok = Get(doc, "data.list.1.id")
	assert.True(t, ok)
	assert.Equal(t, json.Number("2"), v)

	for _, path := range []string{"", "missing", "data.list.5", "data.list.x", "data.name.deeper", "data.list.-1"} {
		_, ok = Get(doc, path)
		assert.False(t, ok, path)
	}
}

func TestSet(t *testing.T) {
	doc := mustDecode(t, `{"a":1,"list":[{"id":1}]}`)

	assert.True(t, Set(doc, "b.c.d", "new"))
	v, _ := Get(doc, "b.c.d")
	assert.Equal(t, "new", v)

	assert.True(t, Set(doc, "a.b", true), "primitive intermediates are replaced")
	v, _ = Get(doc, "a.b")
	assert.Equal(t, true, v)

	assert.True(t, Set(doc, "list.0.id", "one"))
	v, _ = Get(doc, "list.0.id")
	assert.Equal(t, "one", v)

	before, _ := EncodeJSON(doc)
	assert.False(t, Set(doc, "list.3.id", 1))
	assert.False(t, Set(doc, "list.name", 1))
	assert.False(t, Set(doc, "", 1))
	after, _ := EncodeJSON(doc)
	assert.Equal(t, string(before), string(after), "failed writes must not modify the document")

	assert.False(t, Set("scalar", "a", 1))
	assert.False(t, Set(nil, "a", 1))
}

func TestDelete(t *testing.T) {
	doc := mustDecode(t, `{"a":{"b":1,"c":2},"list":[1,2]}`)

	assert.True(t, Delete(doc, "a.b"))
	_, ok := Get(doc, "a.b")
	assert.False(t, ok)

	assert.True(t, Delete(doc, "list.0"))
	v, ok := Get(doc, "list.0")
	assert.True(t, ok)
	assert.Nil(t, v)

	assert.False(t, Delete(doc, "a.missing"))
	assert.False(t, Delete(doc, "nope.deeper"))
	assert.False(t, Delete(doc, "list.7"))
}

func TestTransformResponse(t *testing.T) {
	rules := []Rule{{From: "data.list", To: "data.items"}}
	out := TransformResponse([]byte(`{"data":{"list":[1,2]}}`), rules)
	assert.JSONEq(t, `{"data":{"items":[1,2]}}`, string(out))
}

func TestTransformResponseOverwritesTarget(t *testing.T) {
	out := TransformResponse([]byte(`{"a":1,"b":2}`), []Rule{{From: "a", To: "b"}})
	assert.JSONEq(t, `{"b":1}`, string(out))
}

func TestTransformResponseCreatesIntermediates(t *testing.T) {
	out := TransformResponse([]byte(`{"total":3}`), []Rule{{From: "total", To: "meta.page.total"}})
	assert.JSONEq(t, `{"meta":{"page":{"total":3}}}`, string(out))
}

func TestTransformResponsePassthrough(t *testing.T) {
	cases := map[string]struct {
		body  string
		rules []Rule
	}{
		"no rules":          {`{"a": 1}`, nil},
		"identity rule":     {`{"a":  1, "b": [1,2]}`, []Rule{{From: "a", To: "a"}}},
		"missing source":    {`{"a": 1}`, []Rule{{From: "x.y", To: "z"}}},
		"invalid json":      {`{"a": 1`, []Rule{{From: "a", To: "b"}}},
		"html":              {`<html><body>oops</body></html>`, []Rule{{From: "a", To: "b"}}},
		"empty":             {``, []Rule{{From: "a", To: "b"}}},
		"trailing garbage":  {`{"a":1} {"b":2}`, []Rule{{From: "a", To: "b"}}},
		"unwritable target": {`{"a":1,"list":[1]}`, []Rule{{From: "a", To: "list.4"}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out := TransformResponse([]byte(tc.body), tc.rules)
			assert.Equal(t, tc.body, string(out))
		})
	}
}

func TestTransformResponseArrayRoot(t *testing.T) {
	out := TransformResponse([]byte(`[{"name":"a"},{"name":"b"}]`), []Rule{{From: "0.name", To: "0.title"}})
	assert.JSONEq(t, `[{"title":"a"},{"name":"b"}]`, string(out))
}

func TestTransformResponseKeepsNumbersAndMarkup(t *testing.T) {
	out := TransformResponse([]byte(`{"id":12345678901234567890,"price":1.10,"html":"<b>&</b>","a":1}`), []Rule{{From: "a", To: "b"}})
	assert.Contains(t, string(out), `"id":12345678901234567890`)
	assert.Contains(t, string(out), `"price":1.10`)
	assert.Contains(t, string(out), `"html":"<b>&</b>"`)
}

func TestRenameQuery(t *testing.T) {
	q := map[string][]string{"page": {"1"}, "tag": {"a", "b"}, "size": {"10"}, "limit": {"5"}}
	changed := RenameQuery(q, []Rule{{From: "page", To: "pageNum"}, {From: "tag", To: "tags"}, {From: "size", To: "limit"}, {From: "nope", To: "x"}})
	assert.True(t, changed)
	assert.Equal(t, map[string][]string{"pageNum": {"1"}, "tags": {"a", "b"}, "limit": {"10"}}, q)

	assert.False(t, RenameQuery(map[string][]string{"a": {"1"}}, []Rule{{From: "a", To: "a"}}))
}

func TestRenameBody(t *testing.T) {
	body := mustDecode(t, `{"page":1,"keyword":"x","nested":{"page":2}}`)
	assert.True(t, RenameBody(body, []Rule{{From: "page", To: "pageNum"}}))
	out, _ := EncodeJSON(body)
	assert.JSONEq(t, `{"pageNum":1,"keyword":"x","nested":{"page":2}}`, string(out))

	arr := mustDecode(t, `[{"page":1}]`)
	assert.False(t, RenameBody(arr, []Rule{{From: "page", To: "pageNum"}}))
	assert.False(t, RenameBody("text", []Rule{{From: "page", To: "pageNum"}}))
}

func TestFormToObject(t *testing.T) {
	obj := FormToObject(map[string][]string{"a": {"1"}, "b": {"x", "y"}})
	out, err := EncodeJSON(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"1","b":["x","y"]}`, string(out))
}
