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

// Package mocks provides stub-style mocks for the collaborator interfaces defined in the `contracts` package.
// Methods are implemented as function fields; a nil field yields a zero value.
package mocks

import (
	"sync/atomic"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
)

// MockIntervalTracker is a stub `contracts.IntervalTracker`.
type MockIntervalTracker struct {
	GetLostDetectionThresholdFunc func(positionIndex int) (float64, bool)
	Calls                         atomic.Int64
}

func (m *MockIntervalTracker) GetLostDetectionThreshold(positionIndex int) (float64, bool) {
	m.Calls.Add(1)
	if m.GetLostDetectionThresholdFunc != nil {
		return m.GetLostDetectionThresholdFunc(positionIndex)
	}
	return 0, false
}

// MockLossDetectionConfigRepository is a stub `contracts.LossDetectionConfigRepository`.
type MockLossDetectionConfigRepository struct {
	GetFunc func() (types.LossDetectionConfig, error)
}

func (m *MockLossDetectionConfigRepository) Get() (types.LossDetectionConfig, error) {
	if m.GetFunc != nil {
		return m.GetFunc()
	}
	return types.LossDetectionConfig{}, nil
}

var (
	_ contracts.IntervalTracker               = &MockIntervalTracker{}
	_ contracts.LossDetectionConfigRepository = &MockLossDetectionConfigRepository{}
)
