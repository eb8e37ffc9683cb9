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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SinkSpec is the resolved configuration for one additional transport.
type SinkSpec struct {
	Name     string
	Kind     string
	Config   map[string]string
	ClientID string
}

func (s SinkSpec) Get(key, def string) string {
	if v, ok := s.Config[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// Require returns the value for key or a setup error naming the sink.
func (s SinkSpec) Require(key string) (string, error) {
	v := s.Get(key, "")
	if v == "" {
		return "", fmt.Errorf("%w: %s sink %q: missing %q", ErrSetup, s.Kind, s.Name, key)
	}
	return v, nil
}

// List splits a comma separated value, dropping empty entries.
func (s SinkSpec) List(key string) []string {
	var out []string
	for _, part := range strings.Split(s.Get(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s SinkSpec) Int(key string, def int) (int, error) {
	v := s.Get(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s sink %q: %s: %v", ErrSetup, s.Kind, s.Name, key, err)
	}
	return n, nil
}

func (s SinkSpec) Duration(key string, def time.Duration) (time.Duration, error) {
	v := s.Get(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s sink %q: %s: %v", ErrSetup, s.Kind, s.Name, key, err)
	}
	return d, nil
}

func (s SinkSpec) Bool(key string, def bool) bool {
	v := s.Get(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
