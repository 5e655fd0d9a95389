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

package util

const ConfigExample = `version: "1"
gateway:
  entryPoint: ":8080"
  timeouts:
    read: 30
    write: 60
    idle: 90
  log:
    level: info
    format: text
  redis:
    addr: localhost:6379
    password: ""
    db: 0
    keyPrefix: "platformt_:"
  monitoring:
    enableMetrics: true
    metricsPath: /metrics
  auth:
    secret: ${AUTH_SECRET}
    cookieName: access_token
    downstreamSecret: ${PROXY_TOKEN_SECRET}
    downstreamHeader: AdminAuthorization
    downstreamTTL: 5m
    maxTokensPerUser: 99
  upstream:
    insecureSkipVerify: false
  proxy:
    enabled: false
    trustedProxies:
      - 10.0.0.0/8
  watch: false
  routes:
    - name: erp
      path: /proxy
      target: https://erp.internal
      headers:
        - name: X-Tenant
          value: main
      requestFieldRenames:
        - from: page
          to: pageNum
      responseFieldRenames:
        - from: data.list
          to: data.items
      rateLimit:
        requestsPerUnit: 100
        unit: minute
      healthCheck:
        path: /health
        interval: 30s
        timeout: 5s
        healthyStatuses: [200]
    - name: public-catalog
      path: /catalog
      target: http://catalog.internal:8000/api
      authRequired: false
`

const MainExample = `Initialize config: config init -o config.yml
Check config: config check -c config.yml
Start server: server -c config.yml
Start server with the default config file: server`
