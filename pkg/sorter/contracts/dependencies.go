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

// IntervalTracker supplies a statistically derived loss-detection threshold per position.
//
// # Conformance
//
// Implementations MUST be goroutine-safe and MUST NOT block.
type IntervalTracker interface {
	// GetLostDetectionThreshold returns the threshold in milliseconds, or false when not enough history exists for
	// the position.
	GetLostDetectionThreshold(positionIndex int) (float64, bool)
}

// LossDetectionConfigRepository supplies the administrative loss-detection switch.
//
// # Conformance
//
// Implementations MUST be goroutine-safe. An error means the value is unknown; it never means "disabled".
type LossDetectionConfigRepository interface {
	Get() (types.LossDetectionConfig, error)
}

// NoIntervalTracker is the `IntervalTracker` used when none is configured. It never has a dynamic threshold.
type NoIntervalTracker struct{}

func (NoIntervalTracker) GetLostDetectionThreshold(int) (float64, bool) { return 0, false }

// DefaultLossDetectionConfigRepository is the `LossDetectionConfigRepository` used when none is configured.
type DefaultLossDetectionConfigRepository struct{}

func (DefaultLossDetectionConfigRepository) Get() (types.LossDetectionConfig, error) {
	return types.DefaultLossDetectionConfig(), nil
}

var (
	_ IntervalTracker               = NoIntervalTracker{}
	_ LossDetectionConfigRepository = DefaultLossDetectionConfigRepository{}
)
