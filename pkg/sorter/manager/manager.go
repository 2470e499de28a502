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

package manager

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/queue"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/threshold"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
	logutil "github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

// Option configures a QueueManager.
type Option func(*QueueManager)

// WithClock sets the clock handed to every position queue.
func WithClock(clk clock.PassiveClock) Option {
	return func(m *QueueManager) {
		m.clock = clk
	}
}

// WithThresholdPolicy sets the policy applied to tasks on enqueue.
func WithThresholdPolicy(policy *threshold.Policy) Option {
	return func(m *QueueManager) {
		m.policy = policy
	}
}

// QueueManager holds one position queue per position index.
//
// # Concurrency Model
//
// The `queues` sync.Map gives lock-free lookups on the hot path and safe concurrent provisioning of new positions.
// Every consistency requirement within a position is owned by that position's queue.
type QueueManager struct {
	// --- Immutable (set at construction) ---
	logger logr.Logger
	clock  clock.PassiveClock
	policy *threshold.Policy

	// queues holds the provisioned position queues.
	// Key: int (position index), Value: *queue.PositionQueue
	queues sync.Map
}

// NewQueueManager creates an empty QueueManager.
func NewQueueManager(logger logr.Logger, opts ...Option) *QueueManager {
	m := &QueueManager{
		logger: logger.WithName("queue-manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	if m.policy == nil {
		m.policy = threshold.NewPolicy(nil, nil, logger)
	}
	return m
}

// --- Position Provisioning ---

// queueFor returns the position's queue, provisioning it if needed.
func (m *QueueManager) queueFor(position int) *queue.PositionQueue {
	if val, ok := m.queues.Load(position); ok {
		return val.(*queue.PositionQueue)
	}
	val, loaded := m.queues.LoadOrStore(position, queue.New(position, m.logger, queue.WithClock(m.clock)))
	if !loaded {
		m.logger.V(logutil.VERBOSE).Info("Provisioned position queue", "position", position)
	}
	return val.(*queue.PositionQueue)
}

// existingQueue returns the position's queue if it was provisioned.
func (m *QueueManager) existingQueue(position int) (*queue.PositionQueue, bool) {
	val, ok := m.queues.Load(position)
	if !ok {
		return nil, false
	}
	return val.(*queue.PositionQueue), true
}

// Positions returns the provisioned position indexes in ascending order.
func (m *QueueManager) Positions() []int {
	var positions []int
	m.queues.Range(func(key, _ any) bool {
		positions = append(positions, key.(int))
		return true
	})
	slices.Sort(positions)
	return positions
}

// forEachQueue visits the provisioned queues in ascending position order.
func (m *QueueManager) forEachQueue(fn func(q *queue.PositionQueue)) {
	for _, position := range m.Positions() {
		if q, ok := m.existingQueue(position); ok {
			fn(q)
		}
	}
}

// --- Single-Position Operations ---

// EnqueueTask applies the threshold policy and appends the task to its position's queue. A repeated enqueue of the
// same parcel at the same position updates the queued task in place.
func (m *QueueManager) EnqueueTask(task types.Task) error {
	if err := validate(task); err != nil {
		return err
	}
	m.queueFor(task.PositionIndex).Enqueue(m.policy.Apply(task))
	return nil
}

// EnqueuePriorityTask applies the threshold policy and places the task ahead of every task queued at its position.
func (m *QueueManager) EnqueuePriorityTask(task types.Task) error {
	if err := validate(task); err != nil {
		return err
	}
	m.queueFor(task.PositionIndex).EnqueuePriority(m.policy.Apply(task))
	return nil
}

// DequeueTask removes and returns the next live task at the position.
func (m *QueueManager) DequeueTask(position int) (types.Task, bool) {
	q, ok := m.existingQueue(position)
	if !ok {
		return types.Task{}, false
	}
	return q.Dequeue()
}

// PeekTask returns the next live task at the position without removing it.
func (m *QueueManager) PeekTask(position int) (types.Task, bool) {
	q, ok := m.existingQueue(position)
	if !ok {
		return types.Task{}, false
	}
	return q.Peek()
}

// PeekNextTask returns the live task behind the one PeekTask returns.
func (m *QueueManager) PeekNextTask(position int) (types.Task, bool) {
	q, ok := m.existingQueue(position)
	if !ok {
		return types.Task{}, false
	}
	return q.PeekSecond()
}

// GetQueueCount returns the number of live tasks at the position.
func (m *QueueManager) GetQueueCount(position int) int {
	q, ok := m.existingQueue(position)
	if !ok {
		return 0
	}
	return q.Len()
}

// IsQueueEmpty reports whether the position has no live task.
func (m *QueueManager) IsQueueEmpty(position int) bool {
	return m.GetQueueCount(position) == 0
}

// GetQueueStatus returns a snapshot of the position's queue. An unknown position yields an empty status.
func (m *QueueManager) GetQueueStatus(position int) types.QueueStatus {
	q, ok := m.existingQueue(position)
	if !ok {
		return types.QueueStatus{PositionIndex: position}
	}
	return q.Status()
}

// GetAllQueueStatuses returns a snapshot of every provisioned position, keyed by position index.
func (m *QueueManager) GetAllQueueStatuses() map[int]types.QueueStatus {
	statuses := make(map[int]types.QueueStatus)
	m.forEachQueue(func(q *queue.PositionQueue) {
		statuses[q.PositionIndex()] = q.Status()
	})
	return statuses
}

// TryUpdateTask performs a single optimistic update of the parcel's task at the position. False means the task was
// absent or a concurrent writer won; the caller decides whether to retry.
func (m *QueueManager) TryUpdateTask(position int, parcelID int64, f contracts.TaskUpdateFunc) bool {
	q, ok := m.existingQueue(position)
	if !ok {
		return false
	}
	return q.TryUpdate(parcelID, f)
}

// ClearAllQueues discards every queued task at every position. It is meant for stop, emergency stop and reset.
func (m *QueueManager) ClearAllQueues() {
	cleared := 0
	m.forEachQueue(func(q *queue.PositionQueue) {
		q.Reset()
		cleared++
	})
	m.logger.Info("Cleared all position queues", "positions", cleared)
}

func validate(task types.Task) error {
	if task.ParcelID == 0 {
		return fmt.Errorf("parcel id must be set: %w", contracts.ErrInvalidTask)
	}
	if task.PositionIndex < 0 {
		return fmt.Errorf("position index %d is negative: %w", task.PositionIndex, contracts.ErrInvalidTask)
	}
	return nil
}
