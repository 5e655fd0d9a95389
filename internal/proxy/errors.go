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
	"errors"
	"fmt"
	"net/url"
)

// StatusClientClosedRequest is recorded when the caller goes away before a reply.
const StatusClientClosedRequest = 499

// ErrUpstreamUnreachable is wrapped by every dispatch failure.
var ErrUpstreamUnreachable = errors.New("upstream unreachable")

// UpstreamError describes a failed upstream call.
type UpstreamError struct {
	Route string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("route %s: %v: %v", e.Route, ErrUpstreamUnreachable, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnreachable, e.Err}
}

// Message returns the transport failure without the upstream URL.
func (e *UpstreamError) Message() string {
	var uerr *url.Error
	if errors.As(e.Err, &uerr) {
		return uerr.Err.Error()
	}
	return e.Err.Error()
}
