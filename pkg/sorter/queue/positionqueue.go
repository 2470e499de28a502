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

package queue

import (
	"container/list"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/clock"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/metrics"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
	logutil "github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

const (
	// MaxDequeueSkips bounds the tombstoned slots a single Dequeue discards before reporting empty.
	MaxDequeueSkips = 100
	// PeekScanLimit bounds the slots a single Peek or PeekSecond inspects.
	PeekScanLimit = 10
)

// orderSlot is the element type of the order list.
type orderSlot struct {
	parcelID int64
	seq      uint64
}

// storeEntry is the task store's value. `seq` names the order slot owning the task; `version` changes on every write
// and backs the optimistic check of TryUpdate.
type storeEntry struct {
	task    types.Task
	seq     uint64
	version uint64
}

// Option configures a PositionQueue.
type Option func(*PositionQueue)

// WithClock sets the clock used for enqueue and dequeue timestamps.
func WithClock(clk clock.PassiveClock) Option {
	return func(q *PositionQueue) {
		q.clock = clk
	}
}

// PositionQueue implements `contracts.PositionQueue`.
// See the package documentation for the structure and its invariants.
type PositionQueue struct {
	// --- Immutable (set at construction) ---
	positionIndex int
	clock         clock.PassiveClock
	logger        logr.Logger

	// --- State protected by `mu` ---
	mu sync.Mutex

	order   *list.List
	tasks   map[int64]*storeEntry
	members sets.Set[int64]

	// nextSeq and nextVersion survive Reset so that no slot or version is ever reused.
	nextSeq     uint64
	nextVersion uint64

	lastEnqueueTime time.Time
	lastDequeueTime time.Time
}

var _ contracts.PositionQueue = &PositionQueue{}

// New creates an empty queue for the given position.
func New(positionIndex int, logger logr.Logger, opts ...Option) *PositionQueue {
	q := &PositionQueue{
		positionIndex: positionIndex,
		logger:        logger.WithName("position-queue").WithValues("position", positionIndex),
		order:         list.New(),
		tasks:         make(map[int64]*storeEntry),
		members:       sets.New[int64](),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.clock == nil {
		q.clock = clock.RealClock{}
	}
	return q
}

// PositionIndex returns the position this queue serves.
func (q *PositionQueue) PositionIndex() int { return q.positionIndex }

// Enqueue appends the task in a new order slot, or merges it into the parcel's existing slot.
func (q *PositionQueue) Enqueue(task types.Task) bool {
	isNew := q.add(task, false)
	kind := metrics.EnqueueKindMerge
	if isNew {
		kind = metrics.EnqueueKindNew
	}
	metrics.RecordEnqueue(q.positionIndex, kind)
	q.logger.V(logutil.TRACE).Info("Task enqueued", "parcelID", task.ParcelID, "newSlot", isNew,
		"action", task.DiverterAction)
	return isNew
}

// EnqueuePriority places a new order slot ahead of every queued task. A parcel that already owns a slot is merged
// in place, exactly as Enqueue would.
func (q *PositionQueue) EnqueuePriority(task types.Task) bool {
	isNew := q.add(task, true)
	kind := metrics.EnqueueKindMerge
	if isNew {
		kind = metrics.EnqueueKindPriority
	}
	metrics.RecordEnqueue(q.positionIndex, kind)
	q.logger.V(logutil.DEBUG).Info("Priority task enqueued", "parcelID", task.ParcelID, "newSlot", isNew,
		"action", task.DiverterAction)
	return isNew
}

func (q *PositionQueue) add(task types.Task, front bool) bool {
	stored := task.WithEarliestDequeueFloor()
	stored.PositionIndex = q.positionIndex

	q.mu.Lock()
	defer q.mu.Unlock()

	q.lastEnqueueTime = q.clock.Now()
	if existing, ok := q.tasks[stored.ParcelID]; ok && q.members.Has(stored.ParcelID) {
		q.tasks[stored.ParcelID] = &storeEntry{task: stored, seq: existing.seq, version: q.bumpVersionLocked()}
		return false
	}

	q.nextSeq++
	slot := orderSlot{parcelID: stored.ParcelID, seq: q.nextSeq}
	if front {
		q.order.PushFront(slot)
	} else {
		q.order.PushBack(slot)
	}
	q.tasks[stored.ParcelID] = &storeEntry{task: stored, seq: slot.seq, version: q.bumpVersionLocked()}
	q.members.Insert(stored.ParcelID)
	return true
}

// Dequeue removes and returns the next live task.
func (q *PositionQueue) Dequeue() (types.Task, bool) {
	task, found, skipped := q.dequeue()

	metrics.RecordTombstonesSkipped(q.positionIndex, skipped)
	if !found && skipped >= MaxDequeueSkips {
		metrics.RecordDequeueSkipLimitReached(q.positionIndex)
		q.logger.Info("Dequeue reached the tombstone skip limit, reporting empty", "skipped", skipped,
			"limit", MaxDequeueSkips)
	} else if skipped > 0 {
		q.logger.V(logutil.DEBUG).Info("Dequeue skipped tombstoned slots", "skipped", skipped)
	}
	if found {
		q.logger.V(logutil.TRACE).Info("Task dequeued", "parcelID", task.ParcelID, "action", task.DiverterAction)
	}
	return task, found
}

func (q *PositionQueue) dequeue() (types.Task, bool, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	skipped := 0
	for skipped < MaxDequeueSkips {
		front := q.order.Front()
		if front == nil {
			return types.Task{}, false, skipped
		}
		slot := q.order.Remove(front).(orderSlot)

		entry, ok := q.tasks[slot.parcelID]
		if !ok || entry.seq != slot.seq {
			skipped++
			continue
		}
		delete(q.tasks, slot.parcelID)
		q.members.Delete(slot.parcelID)
		q.lastDequeueTime = q.clock.Now()
		return entry.task.Clone(), true, skipped
	}
	return types.Task{}, false, skipped
}

// Peek returns the next live task without removing it.
func (q *PositionQueue) Peek() (types.Task, bool) {
	return q.peekNth(1)
}

// PeekSecond returns the live task queued behind the one Peek returns.
func (q *PositionQueue) PeekSecond() (types.Task, bool) {
	return q.peekNth(2)
}

func (q *PositionQueue) peekNth(n int) (types.Task, bool) {
	q.mu.Lock()
	task, found, limitHit := q.peekNthLocked(n)
	q.mu.Unlock()

	if limitHit {
		metrics.RecordPeekScanLimitReached(q.positionIndex)
		q.logger.V(logutil.DEBUG).Info("Peek reached the scan limit, reporting not found", "nth", n,
			"limit", PeekScanLimit)
	}
	return task, found
}

// peekNthLocked returns the n-th live task in order. The third result reports whether the scan stopped at
// PeekScanLimit with slots left to inspect.
// Expects `mu` to be held.
func (q *PositionQueue) peekNthLocked(n int) (types.Task, bool, bool) {
	live := 0
	scanned := 0
	for e := q.order.Front(); e != nil; e = e.Next() {
		if scanned == PeekScanLimit {
			return types.Task{}, false, true
		}
		scanned++
		slot := e.Value.(orderSlot)
		entry, ok := q.tasks[slot.parcelID]
		if !ok || entry.seq != slot.seq {
			continue
		}
		live++
		if live == n {
			return entry.task.Clone(), true, false
		}
	}
	return types.Task{}, false, false
}

// LogicalDelete tombstones the parcel's live task. Its order slot is left in place.
func (q *PositionQueue) LogicalDelete(parcelID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.tasks[parcelID]; !ok {
		return false
	}
	delete(q.tasks, parcelID)
	q.members.Delete(parcelID)
	return true
}

// TryUpdate performs a single optimistic read-modify-write of the parcel's live task. `f` runs without the lock.
func (q *PositionQueue) TryUpdate(parcelID int64, f contracts.TaskUpdateFunc) bool {
	q.mu.Lock()
	entry, ok := q.tasks[parcelID]
	q.mu.Unlock()
	if !ok {
		return false
	}

	updated := q.normalize(entry.task, f(entry.task.Clone()))

	q.mu.Lock()
	defer q.mu.Unlock()
	current, ok := q.tasks[parcelID]
	if !ok || current.version != entry.version {
		return false
	}
	q.tasks[parcelID] = &storeEntry{task: updated, seq: current.seq, version: q.bumpVersionLocked()}
	return true
}

// Update applies `f` to the parcel's live task under the lock, keeping its order slot.
func (q *PositionQueue) Update(parcelID int64, f contracts.TaskUpdateFunc) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.tasks[parcelID]
	if !ok {
		return false
	}
	updated := q.normalize(entry.task, f(entry.task.Clone()))
	q.tasks[parcelID] = &storeEntry{task: updated, seq: entry.seq, version: q.bumpVersionLocked()}
	return true
}

// UpdateWhere applies `f` to every live task matching `match`. The returned parcel ids are sorted.
func (q *PositionQueue) UpdateWhere(match contracts.TaskPredicate, f contracts.TaskUpdateFunc) []int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	var updatedIDs []int64
	for parcelID, entry := range q.tasks {
		if !match(entry.task) {
			continue
		}
		updated := q.normalize(entry.task, f(entry.task.Clone()))
		q.tasks[parcelID] = &storeEntry{task: updated, seq: entry.seq, version: q.bumpVersionLocked()}
		updatedIDs = append(updatedIDs, parcelID)
	}
	slices.Sort(updatedIDs)
	return updatedIDs
}

// Contains reports whether the parcel has a live task.
func (q *PositionQueue) Contains(parcelID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.tasks[parcelID]
	return ok
}

// Len returns the number of live tasks.
func (q *PositionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Status returns a snapshot of the queue.
func (q *PositionQueue) Status() types.QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	status := types.QueueStatus{
		PositionIndex:   q.positionIndex,
		TaskCount:       len(q.tasks),
		LastEnqueueTime: q.lastEnqueueTime,
		LastDequeueTime: q.lastDequeueTime,
	}
	if head, ok, _ := q.peekNthLocked(1); ok {
		status.HeadTask = &head
	}
	return status
}

// Reset replaces the order list, task store and membership guard with empty ones.
func (q *PositionQueue) Reset() {
	q.mu.Lock()
	dropped := len(q.tasks)
	q.order = list.New()
	q.tasks = make(map[int64]*storeEntry)
	q.members = sets.New[int64]()
	q.mu.Unlock()

	q.logger.V(logutil.VERBOSE).Info("Queue reset", "droppedTasks", dropped)
}

// normalize keeps the identity of `current` on an updated task and re-applies the earliest dequeue floor.
func (q *PositionQueue) normalize(current, updated types.Task) types.Task {
	updated.ParcelID = current.ParcelID
	updated.PositionIndex = current.PositionIndex
	return updated.WithEarliestDequeueFloor()
}

// bumpVersionLocked returns a fresh store version.
// Expects `mu` to be held.
func (q *PositionQueue) bumpVersionLocked() uint64 {
	q.nextVersion++
	return q.nextVersion
}
