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
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jkaninda/proxy-center/internal/middlewares"
)

const (
	defaultUpstreamTimeout = 30 * time.Second
	maxRedirects           = 10
)

// Hop-by-hop headers. These are removed when forwarding.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Cache-busting headers set on every forwarded request.
var noCacheHeaders = []Header{
	{Name: "Cache-Control", Value: "no-cache, no-store, must-revalidate"},
	{Name: "Pragma", Value: "no-cache"},
	{Name: "Expires", Value: "0"},
}

type DispatcherOptions struct {
	// Timeout bounds connection establishment and the whole exchange.
	Timeout            time.Duration
	InsecureSkipVerify bool
	// CredentialHeader carries the downstream credential.
	CredentialHeader string
	// Transport replaces the default transport, mainly in tests.
	Transport http.RoundTripper
}

// OutboundRequest is a fully transformed request ready to be sent upstream.
type OutboundRequest struct {
	Route   *RouteConfig
	Inbound *http.Request
	// Path is the escaped path appended to the route target.
	Path     string
	RawQuery string
	Body     io.Reader
	// ContentLength of Body, -1 when unknown.
	ContentLength int64
	// ContentType overrides the inbound Content-Type when set.
	ContentType string
	Credential  string
}

// Dispatcher sends outbound requests to upstream services.
type Dispatcher struct {
	client           *http.Client
	credentialHeader string
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultUpstreamTimeout
	}
	if opts.CredentialHeader == "" {
		opts.CredentialHeader = "AdminAuthorization"
	}
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          512,
			MaxIdleConnsPerHost:   256,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
		}
	}
	d := &Dispatcher{credentialHeader: opts.CredentialHeader}
	d.client = &http.Client{
		Transport:     transport,
		Timeout:       opts.Timeout,
		CheckRedirect: d.checkRedirect,
	}
	return d
}

// checkRedirect follows redirects but never hands the downstream credential to another host.
func (d *Dispatcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if req.URL.Host != via[0].URL.Host {
		req.Header.Del(d.credentialHeader)
	}
	return nil
}

// Dispatch sends out upstream. Cancelling ctx aborts the call. Failures are
// returned as *UpstreamError and are never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, out *OutboundRequest) (*http.Response, error) {
	target := upstreamURL(out.Route.TargetURL(), out.Path, out.RawQuery)
	req, err := http.NewRequestWithContext(ctx, out.Inbound.Method, target.String(), out.Body)
	if err != nil {
		return nil, &UpstreamError{Route: out.Route.Name, Err: err}
	}
	if out.Body != nil && out.ContentLength >= 0 {
		req.ContentLength = out.ContentLength
	}
	req.Header = d.outboundHeader(out)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Route: out.Route.Name, Err: err}
	}
	return resp, nil
}

func (d *Dispatcher) outboundHeader(out *OutboundRequest) http.Header {
	in := out.Inbound
	h := make(http.Header, len(in.Header)+8)
	for k, vv := range in.Header {
		h[k] = append([]string(nil), vv...)
	}
	removeHopHeaders(h)
	for _, name := range []string{"Set-Cookie", "Authorization", "Accept-Encoding", "Content-Length", d.credentialHeader} {
		h.Del(name)
	}
	if out.ContentType != "" {
		h.Set("Content-Type", out.ContentType)
	}

	clientIP := middlewares.RealIP(in)
	if prior := in.Header.Get("X-Forwarded-For"); prior != "" {
		if host, _, err := net.SplitHostPort(in.RemoteAddr); err == nil {
			h.Set("X-Forwarded-For", prior+", "+host)
		}
	} else {
		h.Set("X-Forwarded-For", clientIP)
	}
	h.Set("X-Real-IP", clientIP)
	h.Set("X-Forwarded-Host", in.Host)
	if in.TLS != nil {
		h.Set("X-Forwarded-Proto", "https")
	} else {
		h.Set("X-Forwarded-Proto", "http")
	}

	for _, header := range out.Route.Headers {
		h.Set(header.Name, header.Value)
	}
	for _, header := range noCacheHeaders {
		h.Set(header.Name, header.Value)
	}
	if out.Credential != "" {
		h.Set(d.credentialHeader, out.Credential)
	}
	return h
}

func removeHopHeaders(h http.Header) {
	for _, f := range h.Values("Connection") {
		for _, name := range strings.Split(f, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

// upstreamURL joins the target base URL with the rewritten path and query.
func upstreamURL(base *url.URL, escapedPath, rawQuery string) *url.URL {
	u := *base
	joined := strings.TrimSuffix(base.EscapedPath(), "/") + escapedPath
	if joined == "" {
		joined = "/"
	}
	if p, err := url.PathUnescape(joined); err == nil {
		u.Path, u.RawPath = p, joined
	} else {
		u.Path, u.RawPath = joined, ""
	}
	switch {
	case base.RawQuery == "":
		u.RawQuery = rawQuery
	case rawQuery != "":
		u.RawQuery = base.RawQuery + "&" + rawQuery
	}
	u.Fragment, u.RawFragment = "", ""
	return &u
}

// rewritePath strips the route prefix from an escaped request path.
func rewritePath(escapedPath, prefix string) string {
	rest := strings.TrimPrefix(escapedPath, prefix)
	if rest != "" && !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return rest
}
