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
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jkaninda/proxy-center/internal/proxy"
	"github.com/jkaninda/proxy-center/internal/version"
	"github.com/jkaninda/proxy-center/util"
)

func printRoutes(routes []proxy.RouteConfig) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "Path", "Target", "Auth", "Renames (req/resp)"})
	for _, route := range routes {
		t.AppendRow(table.Row{
			route.Name,
			route.Path,
			util.TruncateText(route.Target, 35),
			route.AuthRequired,
			fmt.Sprintf("%d/%d", len(route.RequestFieldRenames), len(route.ResponseFieldRenames)),
		})
	}
	fmt.Println(t.Render())
}

func intro() {
	banner := figure.NewFigure(strings.ReplaceAll(GatewayName, " ", ""), "", true)
	banner.Print()
	fmt.Printf("Version: %s\n", version.Version)
}
