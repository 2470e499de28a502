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

import "time"

// QueueStatus is a point-in-time, read-only snapshot of one position's queue.
type QueueStatus struct {
	PositionIndex int `json:"positionIndex"`
	// TaskCount is the number of live (non-tombstoned) tasks.
	TaskCount int `json:"taskCount"`
	// HeadTask is the task the next dequeue would return, or nil when none is visible within the peek scan limit.
	HeadTask *Task `json:"headTask,omitempty"`
	// LastEnqueueTime and LastDequeueTime are zero when the operation never happened on this position.
	LastEnqueueTime time.Time `json:"lastEnqueueTime"`
	LastDequeueTime time.Time `json:"lastDequeueTime"`
}

// LossDetectionConfig is the administrative loss-detection setting.
type LossDetectionConfig struct {
	IsEnabled bool `json:"enabled"`
}

// DefaultLossDetectionConfig is used whenever the configured value cannot be read. Detection stays enabled.
func DefaultLossDetectionConfig() LossDetectionConfig {
	return LossDetectionConfig{IsEnabled: true}
}
