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

// Command camlisten prints the events a cambridge UDP transport sends.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/altoclef/cambridge/pkg/core"
)

const maxDatagram = 64 * 1024

func main() {
	host := flag.String("host", "127.0.0.1", "address to listen on")
	port := flag.Int("port", 36667, "UDP port to listen on")
	raw := flag.Bool("raw", false, "print datagrams unmodified")
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(*host, strconv.Itoa(*port)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "camlisten: %v\n", err)
		os.Exit(2)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "camlisten: %v\n", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		conn.Close()
	}()

	fmt.Fprintf(os.Stderr, "listening on %s\n", conn.LocalAddr())
	if err := listen(conn, os.Stdout, *raw); err != nil {
		fmt.Fprintf(os.Stderr, "camlisten: %v\n", err)
		os.Exit(1)
	}
}

func listen(conn net.PacketConn, out io.Writer, raw bool) error {
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := conn.ReadFrom(buf)
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, render(bytes.TrimSpace(buf[:n]), raw))
	}
}

// render formats one event line. Lines that are not events are printed as is.
func render(line []byte, raw bool) string {
	if raw {
		return string(line)
	}
	var e core.Event
	if err := json.Unmarshal(line, &e); err != nil || e.Type == "" {
		return string(line)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %-16s %-3s %s", e.ID, e.Type, e.Priority, e.Phase.Label())
	if e.SuggestedMode != core.DisplayNone {
		fmt.Fprintf(&sb, " [%s", e.SuggestedMode)
		if e.SuggestedDurationSec != nil {
			fmt.Fprintf(&sb, " %ds", *e.SuggestedDurationSec)
		}
		sb.WriteString("]")
	}
	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := json.Marshal(e.Payload[k])
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, " %s=%s", k, v)
	}
	return sb.String()
}
