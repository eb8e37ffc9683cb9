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

import "errors"

var (
	ErrSetup            = errors.New("transport setup failed")
	ErrTransport        = errors.New("transport send failed")
	ErrUnhealthy        = errors.New("transport unhealthy")
	ErrClosed           = errors.New("transport closed")
	ErrNoTransport      = errors.New("no transport configured")
	ErrQueueFull        = errors.New("dispatch queue full")
	ErrUnknownTransport = errors.New("unknown transport kind")
)
