/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package contracts

import "errors"

var (
	// ErrInvalidTask indicates a task that can not be queued, such as one with a zero parcel id or a negative
	// position index.
	ErrInvalidTask = errors.New("invalid task")

	// ErrConfigUnavailable indicates that the loss-detection configuration could not be read. Consumers fall back to
	// `types.DefaultLossDetectionConfig`.
	ErrConfigUnavailable = errors.New("loss detection configuration unavailable")
)
