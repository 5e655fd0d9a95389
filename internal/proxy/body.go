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

package proxy

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/jkaninda/proxy-center/internal/transform"
)

const jsonContentType = "application/json"

// buildOutbound rewrites the path, renames query and body fields, and prepares the body.
func buildOutbound(r *http.Request, route *RouteConfig, credential string) (*OutboundRequest, error) {
	out := &OutboundRequest{
		Route:         route,
		Inbound:       r,
		Path:          rewritePath(r.URL.EscapedPath(), route.Path),
		RawQuery:      r.URL.RawQuery,
		ContentLength: -1,
		Credential:    credential,
	}
	rules := route.RequestFieldRenames
	if len(rules) > 0 && out.RawQuery != "" {
		q := r.URL.Query()
		if transform.RenameQuery(q, rules) {
			out.RawQuery = q.Encode()
		}
	}
	if err := prepareBody(out, r, rules); err != nil {
		return nil, err
	}
	return out, nil
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == jsonContentType || strings.HasSuffix(mediaType, "+json")
}

// prepareBody streams multipart and opaque bodies untouched. JSON and url-encoded
// bodies are decoded, renamed and sent as JSON; a JSON body no rule applies to is
// sent as received.
func prepareBody(out *OutboundRequest, r *http.Request, rules []transform.Rule) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	form := mediaType == "application/x-www-form-urlencoded"
	if !form && !isJSONMediaType(mediaType) {
		out.Body = r.Body
		out.ContentLength = r.ContentLength
		return nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	raw := func() {
		out.Body = bytes.NewReader(data)
		out.ContentLength = int64(len(data))
	}
	var doc any
	if form {
		values, err := url.ParseQuery(string(data))
		if err != nil {
			raw()
			return nil
		}
		doc = transform.FormToObject(values)
	} else {
		doc, err = transform.DecodeJSON(data)
		if err != nil {
			raw()
			return nil
		}
	}
	if !transform.RenameBody(doc, rules) && !form {
		raw()
		return nil
	}
	encoded, err := transform.EncodeJSON(doc)
	if err != nil {
		raw()
		return nil
	}
	out.Body = bytes.NewReader(encoded)
	out.ContentLength = int64(len(encoded))
	out.ContentType = jsonContentType
	return nil
}
