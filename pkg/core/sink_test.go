// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package core

import (
	"errors"
	"testing"
	"time"
)

func TestSinkSpecAccessors(t *testing.T) {
	spec := SinkSpec{
		Name: "bus",
		Kind: "kafka",
		Config: map[string]string{
			"brokers": " a:9092, ,b:9092 ",
			"timeout": "3s",
			"history": "32",
			"tls":     "true",
			"blank":   "  ",
		},
	}

	if got := spec.List("brokers"); len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
	if d, err := spec.Duration("timeout", time.Second); err != nil || d != 3*time.Second {
		t.Fatalf("duration = %v, %v", d, err)
	}
	if n, err := spec.Int("history", 64); err != nil || n != 32 {
		t.Fatalf("int = %d, %v", n, err)
	}
	if n, _ := spec.Int("missing", 64); n != 64 {
		t.Fatalf("default int = %d", n)
	}
	if !spec.Bool("tls", false) {
		t.Fatal("expected tls true")
	}
	if spec.Get("blank", "def") != "def" {
		t.Fatal("blank value should fall back to default")
	}
}

func TestSinkSpecErrors(t *testing.T) {
	spec := SinkSpec{Name: "bus", Kind: "kafka", Config: map[string]string{"history": "many"}}

	if _, err := spec.Require("topic"); !errors.Is(err, ErrSetup) {
		t.Fatalf("expected setup error, got %v", err)
	}
	if _, err := spec.Int("history", 1); !errors.Is(err, ErrSetup) {
		t.Fatalf("expected setup error, got %v", err)
	}
}
