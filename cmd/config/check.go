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

package config

import (
	"fmt"
	"os"

	"github.com/jkaninda/proxy-center/internal"
	"github.com/spf13/cobra"
)

var CheckConfigCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a configuration file and summarize the routes it proxies",
	Run: func(cmd *cobra.Command, args []string) {
		configFile, _ := cmd.Flags().GetString("config")
		if configFile == "" {
			configFile = internal.GetConfigPaths()
		}
		strict, _ := cmd.Flags().GetBool("strict")
		summary, err := internal.CheckConfig(configFile)
		if err != nil {
			fmt.Printf("%s is invalid: %v\n", configFile, err)
			os.Exit(1)
		}
		for _, w := range summary.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if strict && len(summary.Warnings) > 0 {
			fmt.Printf("%s has %d warning(s), failing in strict mode\n", configFile, len(summary.Warnings))
			os.Exit(2)
		}
		fmt.Printf("%s is valid: %d route(s) ready to proxy\n", configFile, summary.Routes)
	},
}

func init() {
	CheckConfigCmd.Flags().StringP("config", "c", "", "Path to the configuration filename (default $PROXY_CONFIG_FILE or /etc/proxy-center/config.yml)")
	CheckConfigCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}
