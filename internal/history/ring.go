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

	"github.com/altoclef/cambridge/pkg/core"
)

const DefaultCapacity = 64

// Ring keeps the most recently emitted events, oldest first. It is written
// from the tick goroutine and may be read concurrently.
type Ring struct {
	mu       sync.RWMutex
	entries  []core.Event
	capacity int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		entries:  make([]core.Event, 0, capacity),
		capacity: capacity,
	}
}

// Append stores an event, evicting the oldest entry when full.
func (r *Ring) Append(e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= r.capacity {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:len(r.entries)-1]
	}
	r.entries = append(r.entries, e)
}

// Events returns a copy ordered oldest-first.
func (r *Ring) Events() []core.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]core.Event, len(r.entries))
	copy(result, r.entries)
	return result
}

func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Ring) Capacity() int {
	return r.capacity
}

// Last returns the newest event, if any.
func (r *Ring) Last() (core.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.entries) == 0 {
		return core.Event{}, false
	}
	return r.entries[len(r.entries)-1], true
}
