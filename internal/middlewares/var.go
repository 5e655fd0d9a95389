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

package middlewares

import (
	"sync/atomic"

	logger2 "github.com/jkaninda/logger"
	"github.com/jkaninda/proxy-center/internal/config"
)

// RequestIDHeader carries the id assigned to every inbound request.
const RequestIDHeader = "X-Request-ID"

var (
	logger         = logger2.Default()
	trustedProxies atomic.Pointer[config.ProxyConfig]
)

// SetLogger replaces the package logger.
func SetLogger(l *logger2.Logger) {
	if l != nil {
		logger = l
	}
}

// SetTrustedProxies sets the peers allowed to announce client addresses. p must be initialized.
func SetTrustedProxies(p *config.ProxyConfig) {
	trustedProxies.Store(p)
}
