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

package threshold

import (
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts/mocks"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
)

var (
	created = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	arrival = created.Add(4 * time.Second)
)

func baseTask() types.Task {
	return types.Task{
		ParcelID:            7,
		PositionIndex:       2,
		DiverterAction:      types.DiverterActionLeft,
		CreatedAt:           created,
		ExpectedArrivalTime: arrival,
		TimeoutThreshold:    200 * time.Millisecond,
	}
}

func enabledConfig(enabled bool) *mocks.MockLossDetectionConfigRepository {
	return &mocks.MockLossDetectionConfigRepository{
		GetFunc: func() (types.LossDetectionConfig, error) {
			return types.LossDetectionConfig{IsEnabled: enabled}, nil
		},
	}
}

func trackerReturning(ms float64, ok bool) *mocks.MockIntervalTracker {
	return &mocks.MockIntervalTracker{
		GetLostDetectionThresholdFunc: func(int) (float64, bool) { return ms, ok },
	}
}

func TestPolicy_Apply(t *testing.T) {
	t.Parallel()

	withPreset := baseTask().WithLossDetection(time.Second)

	testCases := []struct {
		name             string
		task             types.Task
		tracker          contracts.IntervalTracker
		config           contracts.LossDetectionConfigRepository
		expectedTimeout  *time.Duration
		expectedDeadline *time.Time
	}{
		{
			name:    "Disabled_ClearsPresetFields",
			task:    withPreset,
			tracker: trackerReturning(800, true),
			config:  enabledConfig(false),
		},
		{
			name:             "Enabled_UsesDynamicThreshold",
			task:             baseTask(),
			tracker:          trackerReturning(800, true),
			config:           enabledConfig(true),
			expectedTimeout:  ptr.To(800 * time.Millisecond),
			expectedDeadline: ptr.To(arrival.Add(800 * time.Millisecond)),
		},
		{
			name:             "Enabled_DynamicThresholdOverridesPreset",
			task:             withPreset,
			tracker:          trackerReturning(250.5, true),
			config:           enabledConfig(true),
			expectedTimeout:  ptr.To(250500 * time.Microsecond),
			expectedDeadline: ptr.To(arrival.Add(250500 * time.Microsecond)),
		},
		{
			name:             "NoDynamicThreshold_FallsBackToStaticMultiplier",
			task:             baseTask(),
			tracker:          trackerReturning(0, false),
			config:           enabledConfig(true),
			expectedTimeout:  ptr.To(300 * time.Millisecond),
			expectedDeadline: ptr.To(arrival.Add(300 * time.Millisecond)),
		},
		{
			name:             "NilCollaborators_FallBackToStaticMultiplier",
			task:             baseTask(),
			expectedTimeout:  ptr.To(300 * time.Millisecond),
			expectedDeadline: ptr.To(arrival.Add(300 * time.Millisecond)),
		},
		{
			name:             "NoDynamicThreshold_KeepsPresetDeadline",
			task:             withPreset,
			config:           enabledConfig(true),
			expectedTimeout:  ptr.To(time.Second),
			expectedDeadline: ptr.To(arrival.Add(time.Second)),
		},
		{
			name: "NoDynamicThreshold_NoTimeout_LeavesFieldsEmpty",
			task: func() types.Task {
				task := baseTask()
				task.TimeoutThreshold = 0
				return task
			}(),
			config: enabledConfig(true),
		},
		{
			name: "ZeroExpectedArrival_SkipsTracker",
			task: func() types.Task {
				task := baseTask()
				task.ExpectedArrivalTime = time.Time{}
				task.TimeoutThreshold = 0
				return task
			}(),
			tracker: trackerReturning(800, true),
			config:  enabledConfig(true),
		},
		{
			name:    "ConfigUnreadable_KeepsDetectionEnabled",
			task:    baseTask(),
			tracker: trackerReturning(800, true),
			config: &mocks.MockLossDetectionConfigRepository{
				GetFunc: func() (types.LossDetectionConfig, error) {
					return types.LossDetectionConfig{}, errors.New("connection refused")
				},
			},
			expectedTimeout:  ptr.To(800 * time.Millisecond),
			expectedDeadline: ptr.To(arrival.Add(800 * time.Millisecond)),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			policy := NewPolicy(tc.tracker, tc.config, logr.Discard())
			got := policy.Apply(tc.task)

			assert.Equal(t, tc.expectedTimeout, got.LostDetectionTimeout)
			assert.Equal(t, tc.expectedDeadline, got.LostDetectionDeadline)

			// Only the loss-detection fields may change.
			got.LostDetectionTimeout, got.LostDetectionDeadline = nil, nil
			want := tc.task.WithoutLossDetection()
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Apply changed unrelated fields (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPolicy_Apply_DoesNotConsultTrackerWhenDisabled(t *testing.T) {
	t.Parallel()
	tracker := trackerReturning(800, true)
	policy := NewPolicy(tracker, enabledConfig(false), logr.Discard())

	got := policy.Apply(baseTask())
	require.False(t, got.HasLossDetection())
	assert.Zero(t, tracker.Calls.Load())
}
