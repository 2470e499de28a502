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

package types

import (
	"time"

	"k8s.io/utils/ptr"
)

// Task is one pending actuation for one parcel at one position index.
//
// A position's queue holds at most one live task per `ParcelID`. `ParcelID` and `PositionIndex` form the identity
// of a task and are never changed by the copy-and-update methods below.
type Task struct {
	// ParcelID identifies the parcel. It is the key of the task within its position's queue.
	ParcelID int64
	// PositionIndex identifies the queue (and physical diverter position) this task belongs to.
	PositionIndex int

	DiverterID     int64
	DiverterAction DiverterAction

	// CreatedAt is when the parcel (and therefore this task) was produced upstream.
	CreatedAt time.Time
	// ExpectedArrivalTime is when the parcel is predicted to physically reach this position.
	ExpectedArrivalTime time.Time
	// TimeoutThreshold is the grace window around `ExpectedArrivalTime` before the task is declared timed out.
	TimeoutThreshold time.Duration
	// FallbackAction is executed instead of `DiverterAction` when the timeout fires.
	FallbackAction DiverterAction

	// LostDetectionTimeout and LostDetectionDeadline drive loss judgment. A nil deadline means the task is never
	// judged as lost.
	LostDetectionTimeout  *time.Duration
	LostDetectionDeadline *time.Time

	// EarliestDequeueTime, when set, is never earlier than `CreatedAt`.
	EarliestDequeueTime *time.Time
}

// EarliestDequeueTimeFor computes the earliest moment a task may be consumed: the start of the timeout window
// around the expected arrival, clamped so it is never earlier than the creation time.
func EarliestDequeueTimeFor(createdAt, expectedArrival time.Time, timeoutThreshold time.Duration) time.Time {
	earliest := expectedArrival.Add(-timeoutThreshold)
	if earliest.Before(createdAt) {
		return createdAt
	}
	return earliest
}

// Clone returns a deep copy of the task. The nullable fields point to fresh values.
func (t Task) Clone() Task {
	c := t
	if t.LostDetectionTimeout != nil {
		c.LostDetectionTimeout = ptr.To(*t.LostDetectionTimeout)
	}
	if t.LostDetectionDeadline != nil {
		c.LostDetectionDeadline = ptr.To(*t.LostDetectionDeadline)
	}
	if t.EarliestDequeueTime != nil {
		c.EarliestDequeueTime = ptr.To(*t.EarliestDequeueTime)
	}
	return c
}

// HasLossDetection reports whether the task can be judged as lost.
func (t Task) HasLossDetection() bool {
	return t.LostDetectionDeadline != nil
}

// WithAction returns a copy of the task with a different diverter action.
func (t Task) WithAction(action DiverterAction) Task {
	c := t.Clone()
	c.DiverterAction = action
	return c
}

// WithoutLossDetection returns a copy of the task that will never be judged as lost.
func (t Task) WithoutLossDetection() Task {
	c := t.Clone()
	c.LostDetectionTimeout = nil
	c.LostDetectionDeadline = nil
	return c
}

// WithLossDetection returns a copy of the task whose loss deadline is `timeout` after its expected arrival.
func (t Task) WithLossDetection(timeout time.Duration) Task {
	c := t.Clone()
	c.LostDetectionTimeout = ptr.To(timeout)
	c.LostDetectionDeadline = ptr.To(t.ExpectedArrivalTime.Add(timeout))
	return c
}

// WithEarliestDequeueFloor returns a copy of the task whose `EarliestDequeueTime`, if set, is raised to
// `CreatedAt` when it would otherwise precede it.
func (t Task) WithEarliestDequeueFloor() Task {
	c := t.Clone()
	if c.EarliestDequeueTime != nil && c.EarliestDequeueTime.Before(c.CreatedAt) {
		c.EarliestDequeueTime = ptr.To(c.CreatedAt)
	}
	return c
}

// WithRouteFrom returns a copy of the task carrying the route-dependent fields of `src`: the action, the arrival
// prediction with its timeout and fallback, the loss-detection fields and the earliest dequeue time. Identity,
// diverter and creation time are kept from the receiver.
func (t Task) WithRouteFrom(src Task) Task {
	c := t.Clone()
	s := src.Clone()
	c.DiverterAction = s.DiverterAction
	c.ExpectedArrivalTime = s.ExpectedArrivalTime
	c.TimeoutThreshold = s.TimeoutThreshold
	c.FallbackAction = s.FallbackAction
	c.LostDetectionTimeout = s.LostDetectionTimeout
	c.LostDetectionDeadline = s.LostDetectionDeadline
	c.EarliestDequeueTime = s.EarliestDequeueTime
	return c.WithEarliestDequeueFloor()
}
