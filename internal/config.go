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

package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jkaninda/proxy-center/util"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads configFile, expands ${VAR} references and validates the result.
func LoadConfig(configFile string) (*GatewayConfig, error) {
	if !util.FileExists(configFile) {
		return nil, &ConfigError{Field: "file", Err: fmt.Errorf("config file not found: %s", configFile)}
	}
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	c := &GatewayConfig{}
	c.Gateway.setDefaults()
	if err = yaml.Unmarshal([]byte(util.ReplaceEnvVars(string(buf))), c); err != nil {
		return nil, &ConfigError{Field: "file", Err: fmt.Errorf("parsing the configuration file %q: %w", configFile, err)}
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// GetConfigPaths returns the configuration file in use.
func GetConfigPaths() string {
	return util.GetStringEnv("PROXY_CONFIG_FILE", ConfigFile)
}

// setEnv exports logging settings for pkg/log.
func (g *Gateway) setEnv() {
	util.SetEnv("PROXY_LOG_LEVEL", g.Log.Level)
	util.SetEnv("PROXY_LOG_FILE", g.Log.FilePath)
	util.SetEnv("PROXY_LOG_FORMAT", g.Log.Format)
}

// InitConfig writes a sample configuration file.
func InitConfig(configFile string) error {
	if configFile == "" {
		configFile = GetConfigPaths()
	}
	if dir := filepath.Dir(configFile); !util.FolderExists(dir) {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(configFile, []byte(util.ConfigExample), 0o644)
}
