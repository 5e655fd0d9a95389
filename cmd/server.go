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
	"context"
	"fmt"
	"os"

	"github.com/jkaninda/proxy-center/internal"
	"github.com/spf13/cobra"
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Proxy Center server",
	Run: func(cmd *cobra.Command, args []string) {
		configFile, _ := cmd.Flags().GetString("config")
		if configFile == "" {
			configFile = internal.GetConfigPaths()
		}
		gs, err := internal.NewGatewayServer(context.Background(), configFile)
		if err != nil {
			fmt.Printf("Could not start server: %v\n", err)
			os.Exit(1)
		}
		if err = gs.Start(); err != nil {
			fmt.Printf("Server stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	ServerCmd.Flags().StringP("config", "c", "", "Path to the configuration filename")
}
