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
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewInstanceID returns a random identifier for one pipeline instance.
func NewInstanceID() string {
	return uuid.New().String()
}

// ClientID derives a short, stable broker client id for a sink of the given
// instance. Brokers that reject long ids accept the 12 hex character form.
func ClientID(instanceID, sink string) string {
	if instanceID == "" {
		instanceID = NewInstanceID()
	}
	sink = strings.TrimSpace(sink)
	hash := sha256.Sum256([]byte(instanceID + "/" + sink))
	return "cambridge-" + hex.EncodeToString(hash[:])[:12]
}
