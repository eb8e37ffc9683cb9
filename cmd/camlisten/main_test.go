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

package main

import (
	"bytes"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const line = `{"id":7,"ts":1,"type":"TASK_START","priority":"P1","phase":"NETHER","payload":{"task_key":"rods","task_class":"c"},"suggested_mode":"QUICK","suggested_duration_sec":5}`

func TestRender(t *testing.T) {
	got := render([]byte(line), false)
	assert.True(t, strings.HasPrefix(got, "#7 TASK_START"), got)
	assert.Contains(t, got, "NETHER [QUICK 5s]")
	assert.True(t, strings.HasSuffix(got, `task_class="c" task_key="rods"`), got)

	assert.Equal(t, line, render([]byte(line), true))
	assert.Equal(t, "not json", render([]byte("not json"), false))
	assert.Equal(t, `{"a":1}`, render([]byte(`{"a":1}`), false))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestListen(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- listen(conn, out, true) }()

	sender, err := net.DialUDP("udp", nil, conn.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer sender.Close()
	_, err = sender.Write([]byte(line + "\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return out.String() == line+"\n" }, time.Second, 5*time.Millisecond)
	conn.Close()
	assert.NoError(t, <-done)
}
