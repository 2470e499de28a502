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

// Package contracts defines the boundaries of the diverter task sequencing core.
//
// The primary contracts are:
//
//   - `PositionQueue`: the per-position FIFO of actuation tasks with idempotent insertion, priority insertion and
//     logical deletion.
//
//   - `IntervalTracker` and `LossDetectionConfigRepository`: optional collaborators consulted by the threshold
//     policy when a task is enqueued.
package contracts
