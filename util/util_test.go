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

import (
	"testing"
)

func TestConExpression(t *testing.T) {
	cronExpression := "@every 30s"
	if !IsValidCronExpression(cronExpression) {
		t.Fatal("Cron expression should be valid")
	}
	if IsValidCronExpression("@every thirty") {
		t.Fatal("Cron expression should be invalid")
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("20s")
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	if d.Seconds() != 20 {
		t.Fatalf("expected 20s, got %s", d)
	}
	d, err = ParseDuration("")
	if err != nil || d != 0 {
		t.Fatalf("empty duration should be zero, got %s %v", d, err)
	}
	if _, err = ParseDuration("10 minutes"); err == nil {
		t.Fatal("expected an error for an invalid duration")
	}
}

func TestReplaceEnvVars(t *testing.T) {
	t.Setenv("PROXY_TEST_SECRET", "s3cr3t")
	got := ReplaceEnvVars("secret: ${PROXY_TEST_SECRET}\nother: ${PROXY_TEST_UNSET_VAR}\nkeep: $HOME")
	want := "secret: s3cr3t\nother: \nkeep: $HOME"
	if got != want {
		t.Fatalf("unexpected expansion:\n%s", got)
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("Public Catalog/v2"); got != "public-catalog-v2" {
		t.Fatalf("unexpected slug %q", got)
	}
}
