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

package intervaltracker

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T, mutate func(*Config)) *Tracker {
	t.Helper()
	config := DefaultConfig()
	config.MinSamples = 3
	config.WindowSize = 5
	config.SafetyCoefficient = 2
	config.MaxGap = 10 * time.Second
	if mutate != nil {
		mutate(&config)
	}
	tracker, err := New(config, logr.Discard())
	require.NoError(t, err, "Test setup: creating the tracker should not fail")
	return tracker
}

// recordSpacings records arrivals separated by the given spacings, starting at `start`.
func recordSpacings(tracker *Tracker, position int, spacings ...time.Duration) {
	at := start
	tracker.RecordArrival(position, at)
	for _, spacing := range spacings {
		at = at.Add(spacing)
		tracker.RecordArrival(position, at)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
	}{
		{name: "Defaults"},
		{name: "ZeroWindow", mutate: func(c *Config) { c.WindowSize = 0 }, expectErr: true},
		{name: "MinSamplesAboveWindow", mutate: func(c *Config) { c.MinSamples = c.WindowSize + 1 }, expectErr: true},
		{name: "NonPositiveCoefficient", mutate: func(c *Config) { c.SafetyCoefficient = 0 }, expectErr: true},
		{name: "NonPositiveMaxGap", mutate: func(c *Config) { c.MaxGap = -time.Second }, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			config := DefaultConfig()
			if tc.mutate != nil {
				tc.mutate(&config)
			}
			err := config.Validate()
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := New(Config{}, logr.Discard())
	assert.Error(t, err)
}

func TestTracker_GetLostDetectionThreshold(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		spacings   []time.Duration
		expectOK   bool
		expectedMs float64
	}{
		{
			name:     "NoHistory",
			expectOK: false,
		},
		{
			name:     "BelowMinSamples",
			spacings: []time.Duration{time.Second, time.Second},
			expectOK: false,
		},
		{
			name:       "OddWindowUsesMiddleValue",
			spacings:   []time.Duration{900 * time.Millisecond, 1100 * time.Millisecond, 1000 * time.Millisecond},
			expectOK:   true,
			expectedMs: 2000,
		},
		{
			name:       "EvenWindowAveragesMiddleValues",
			spacings:   []time.Duration{400 * time.Millisecond, 600 * time.Millisecond, 800 * time.Millisecond, 1000 * time.Millisecond},
			expectOK:   true,
			expectedMs: 1400,
		},
		{
			name:       "OutlierDoesNotMoveMedian",
			spacings:   []time.Duration{time.Second, time.Second, 9 * time.Second, time.Second, time.Second},
			expectOK:   true,
			expectedMs: 2000,
		},
		{
			name: "OnlyMostRecentWindowCounts",
			spacings: []time.Duration{
				5 * time.Second, 5 * time.Second, 5 * time.Second,
				500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond,
				500 * time.Millisecond, 500 * time.Millisecond,
			},
			expectOK:   true,
			expectedMs: 1000,
		},
		{
			name:     "GapsAboveMaxGapAreDiscarded",
			spacings: []time.Duration{time.Second, time.Minute, time.Second},
			expectOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tracker := newTestTracker(t, nil)
			if len(tc.spacings) > 0 {
				recordSpacings(tracker, 1, tc.spacings...)
			}

			ms, ok := tracker.GetLostDetectionThreshold(1)
			require.Equal(t, tc.expectOK, ok)
			if tc.expectOK {
				assert.InDelta(t, tc.expectedMs, ms, 1e-9)
			}
			_, ok = tracker.GetLostDetectionThreshold(2)
			assert.False(t, ok, "positions must not share history")
		})
	}
}

func TestTracker_OutOfOrderArrivalIsDiscarded(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t, func(c *Config) { c.MinSamples = 1 })

	tracker.RecordArrival(1, start)
	tracker.RecordArrival(1, start.Add(-time.Second))
	_, ok := tracker.GetLostDetectionThreshold(1)
	assert.False(t, ok)
}

func TestTracker_Reset(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t, nil)
	recordSpacings(tracker, 1, time.Second, time.Second, time.Second)
	_, ok := tracker.GetLostDetectionThreshold(1)
	require.True(t, ok)

	tracker.Reset()
	_, ok = tracker.GetLostDetectionThreshold(1)
	assert.False(t, ok)

	tracker.RecordArrival(1, start.Add(time.Hour))
	tracker.RecordArrival(1, start.Add(time.Hour+time.Second))
	_, ok = tracker.GetLostDetectionThreshold(1)
	assert.False(t, ok, "history must start over after a reset")
}

func TestTracker_RunStopsWithContext(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		tracker.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}
}
