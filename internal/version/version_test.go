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

package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	i := Info{Version: "v1.2.0", ConfigVersion: "1", GoVersion: "go1.23.2", Platform: "linux/amd64"}
	out := i.String()
	assert.True(t, strings.HasPrefix(out, "proxy-center v1.2.0 (config v1)"))
	assert.Contains(t, out, "commit:   unknown")
	assert.Contains(t, out, "go1.23.2 linux/amd64")
	assert.Equal(t, "proxy-center/"+Version, UserAgent())
	assert.Equal(t, ConfigVersion, Get().ConfigVersion)
}
