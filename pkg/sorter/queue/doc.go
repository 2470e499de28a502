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

// Package queue provides the per-position FIFO of diverter actuation tasks.
//
// # Structure
//
// Each `PositionQueue` is composed of three coupled structures, all owned by one mutex:
//
//   - The order list: a `container/list` of order slots. It holds parcel ids only and is the sole source of dequeue
//     order. Priority inserts push to its front.
//   - The task store: a map from parcel id to the live task. Removing an entry here is the entire cost of a delete.
//   - The membership guard: the set of parcel ids that currently own an order slot. It decides whether an enqueue
//     creates a new slot or merges into an existing one.
//
// # Logical Deletion
//
// Deleting a task removes it from the store and the guard and leaves its order slot behind as a tombstone. Readers
// skip tombstones transparently. Every slot carries a sequence number that the store entry records; a slot whose
// sequence does not match the store is a tombstone even when the same parcel was enqueued again afterwards, so a
// re-enqueued parcel always waits in its own new slot.
//
// # Bounded Reads
//
// `Dequeue` discards at most `MaxDequeueSkips` tombstones per call and `Peek`/`PeekSecond` inspect at most
// `PeekScanLimit` slots. Hitting either bound reports "empty" and is counted in the metrics package.
package queue
