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

import "github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"

// TaskUpdateFunc derives a new task value from the current one. It must not retain or mutate `current`.
type TaskUpdateFunc func(current types.Task) types.Task

// TaskPredicate selects tasks for a bulk update.
type TaskPredicate func(task types.Task) bool

// PositionQueue defines the contract for the FIFO of actuation tasks at a single position index.
//
// A queue admits at most one live task per parcel. Dequeue order is insertion order, except that a priority insert
// goes ahead of everything currently queued. Deleting a task is logical: its order slot stays behind and is skipped
// by later reads.
//
// # Conformance
//
// All methods MUST be goroutine-safe for any number of producers. `Dequeue` assumes a single consumer per position;
// this is not enforced.
type PositionQueue interface {
	// PositionIndex returns the position this queue serves.
	PositionIndex() int

	// Enqueue appends the task in a new order slot, or overwrites the live task of the same parcel without changing
	// its order. Returns true if a new order slot was created.
	Enqueue(task types.Task) bool

	// EnqueuePriority behaves like Enqueue, except that a new order slot is placed ahead of every queued task.
	EnqueuePriority(task types.Task) bool

	// Dequeue removes and returns the next live task, skipping tombstoned slots up to a bounded count. Returns false
	// when no live task was reached within that bound.
	Dequeue() (types.Task, bool)

	// Peek returns the next live task without removing it, scanning a bounded number of slots.
	Peek() (types.Task, bool)

	// PeekSecond returns the live task after the one Peek would return, scanning a bounded number of slots.
	PeekSecond() (types.Task, bool)

	// LogicalDelete tombstones the live task of the parcel. Returns true if one existed.
	LogicalDelete(parcelID int64) bool

	// TryUpdate applies `f` to the live task of the parcel and installs the result only if no other write happened
	// in between. A single attempt is made. Returns false if the task is absent or the race was lost.
	TryUpdate(parcelID int64, f TaskUpdateFunc) bool

	// Update applies `f` to the live task of the parcel while holding the queue's lock. The order slot is kept.
	// Returns false if the parcel has no live task.
	Update(parcelID int64, f TaskUpdateFunc) bool

	// UpdateWhere applies `f` to every live task matching `match` and returns the parcel ids it updated.
	UpdateWhere(match TaskPredicate, f TaskUpdateFunc) []int64

	// Contains reports whether the parcel has a live task.
	Contains(parcelID int64) bool

	// Len returns the number of live tasks.
	Len() int

	// Status returns a snapshot of the queue.
	Status() types.QueueStatus

	// Reset discards every task and order slot.
	Reset()
}
