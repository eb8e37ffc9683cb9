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

package history

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altoclef/cambridge/pkg/core"
)

func event(id uint64) core.Event {
	e := core.NewEvent(core.EventHeartbeat, time.UnixMilli(int64(id)), core.PhaseNone, nil)
	e.ID = id
	return e
}

func TestRingEvictsOldestFirst(t *testing.T) {
	r := NewRing(DefaultCapacity)
	for i := uint64(1); i <= 70; i++ {
		r.Append(event(i))
	}
	events := r.Events()
	require.Len(t, events, 64)
	assert.Equal(t, uint64(7), events[0].ID)
	assert.Equal(t, uint64(70), events[63].ID)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(70), last.ID)
}

func TestRingReturnsCopy(t *testing.T) {
	r := NewRing(4)
	r.Append(event(1))
	events := r.Events()
	events[0].ID = 99
	assert.Equal(t, uint64(1), r.Events()[0].ID)
}

func TestRingEmpty(t *testing.T) {
	r := NewRing(0)
	assert.Equal(t, DefaultCapacity, r.Capacity())
	assert.Empty(t, r.Events())
	_, ok := r.Last()
	assert.False(t, ok)
}

func TestRingConcurrentReaders(t *testing.T) {
	r := NewRing(8)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.LessOrEqual(t, len(r.Events()), 8)
			}
		}()
	}
	for i := uint64(1); i <= 100; i++ {
		r.Append(event(i))
	}
	wg.Wait()
	assert.Equal(t, 8, r.Len())
}
