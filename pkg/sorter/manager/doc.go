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

// Package manager provides the Queue Manager: the facade holding one `queue.PositionQueue` per position index.
//
// Position queues are provisioned lazily on the first enqueue for a position and are never removed; reads on a
// position that was never used report empty without provisioning anything.
//
// # Cross-Position Operations
//
// `RemoveAllTasksForParcel`, `UpdateAffectedParcelsToStraight` and `ReplaceTasksInPlace` visit every position in
// turn. Each visit takes that position's lock only for its own step, and no two position locks are ever held at
// once, so bulk operations can not deadlock against each other or against producers.
package manager
