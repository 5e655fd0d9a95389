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
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// ConfigVersion is the configuration file format this build reads.
const ConfigVersion = "1"

// Set at build time with -ldflags "-X".
var (
	Version   = "development"
	buildTime string
	gitCommit string
)

// Info describes the running build.
type Info struct {
	Version       string
	ConfigVersion string
	GitCommit     string
	BuildTime     string
	GoVersion     string
	Platform      string
}

// Get returns the build information. Without ldflags the commit comes from the
// module's VCS stamp.
func Get() Info {
	info := Info{
		Version:       Version,
		ConfigVersion: ConfigVersion,
		GitCommit:     gitCommit,
		BuildTime:     buildTime,
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	return info
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "proxy-center %s (config v%s)\n", i.Version, i.ConfigVersion)
	fmt.Fprintf(&b, "  commit:   %s\n", valueOr(i.GitCommit, "unknown"))
	fmt.Fprintf(&b, "  built:    %s\n", valueOr(i.BuildTime, "unknown"))
	fmt.Fprintf(&b, "  go:       %s %s", i.GoVersion, i.Platform)
	return b.String()
}

// UserAgent identifies the gateway's own outbound calls.
func UserAgent() string {
	return "proxy-center/" + Version
}

func FullVersion() {
	fmt.Println(Get())
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
