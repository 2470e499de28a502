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

// Package threshold decides the loss-detection deadline of a task at enqueue time.
package threshold

import (
	"math"
	"time"

	"github.com/go-logr/logr"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
	logutil "github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

// StaticTimeoutMultiplier scales `Task.TimeoutThreshold` into a loss-detection timeout when no dynamic threshold is
// available.
const StaticTimeoutMultiplier = 1.5

// Policy computes loss-detection fields from an optional interval tracker and an optional configuration switch.
// Missing collaborators are replaced by `contracts.NoIntervalTracker` and
// `contracts.DefaultLossDetectionConfigRepository`.
type Policy struct {
	tracker contracts.IntervalTracker
	config  contracts.LossDetectionConfigRepository
	logger  logr.Logger
}

// NewPolicy creates a Policy. Either collaborator may be nil.
func NewPolicy(
	tracker contracts.IntervalTracker,
	config contracts.LossDetectionConfigRepository,
	logger logr.Logger,
) *Policy {
	if tracker == nil {
		tracker = contracts.NoIntervalTracker{}
	}
	if config == nil {
		config = contracts.DefaultLossDetectionConfigRepository{}
	}
	return &Policy{
		tracker: tracker,
		config:  config,
		logger:  logger.WithName("threshold-policy"),
	}
}

// Apply returns the task with its loss-detection fields decided:
//  1. detection disabled: both fields cleared;
//  2. a dynamic threshold for the position: timeout set to it, deadline measured from the expected arrival;
//  3. no deadline yet and a positive timeout threshold: timeout and deadline from the static multiplier;
//  4. otherwise the fields are left as provided.
func (p *Policy) Apply(task types.Task) types.Task {
	if !p.enabled() {
		return task.WithoutLossDetection()
	}

	if !task.ExpectedArrivalTime.IsZero() {
		if ms, ok := p.tracker.GetLostDetectionThreshold(task.PositionIndex); ok && ms > 0 && !math.IsInf(ms, 0) {
			return task.WithLossDetection(millis(ms))
		}
	}

	if task.LostDetectionDeadline == nil && task.TimeoutThreshold > 0 {
		return task.WithLossDetection(time.Duration(float64(task.TimeoutThreshold) * StaticTimeoutMultiplier))
	}
	return task
}

func (p *Policy) enabled() bool {
	cfg, err := p.config.Get()
	if err != nil {
		p.logger.V(logutil.DEBUG).Info("Loss detection configuration unreadable, keeping detection enabled",
			"error", err.Error())
		return types.DefaultLossDetectionConfig().IsEnabled
	}
	return cfg.IsEnabled
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
