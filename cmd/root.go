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

package cmd

import (
	"fmt"
	"os"

	"github.com/jkaninda/proxy-center/cmd/config"
	"github.com/jkaninda/proxy-center/internal/version"
	"github.com/jkaninda/proxy-center/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "proxy-center",
	Short:   "Proxy Center is an authenticating reverse proxy",
	Long:    "Proxy Center verifies session tokens, rewrites request and response fields and forwards traffic to internal services",
	Example: util.MainExample,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadDotEnv()
	},
	Run: func(cmd *cobra.Command, args []string) {
		ServerCmd.Run(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Printf("Error executing root command %v\n", err)
		os.Exit(1)
	}
}

// loadDotEnv loads .env from the working directory when present.
func loadDotEnv() {
	if !util.FileExists(".env") {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}
}

func init() {
	rootCmd.AddCommand(ServerCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(VersionCmd)
	rootCmd.Flags().StringP("config", "c", "", "Path to the configuration filename")
}
