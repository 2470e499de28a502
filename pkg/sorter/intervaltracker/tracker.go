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

// Package intervaltracker derives per-position loss-detection thresholds from observed parcel arrivals.
//
// For each position the tracker keeps the most recent inter-arrival intervals and reports their median scaled by a
// safety coefficient. The median keeps a single jam or gap from moving the threshold. Intervals longer than
// `Config.MaxGap` (the line was stopped or starved) are discarded, and the last arrival of a position that stays idle
// for `Config.MaxGap` is evicted.
package intervaltracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/jellydator/ttlcache/v3"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts"
	logutil "github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

const (
	DefaultWindowSize        = 20
	DefaultMinSamples        = 5
	DefaultSafetyCoefficient = 3.0
	DefaultMaxGap            = 30 * time.Second
)

// Config holds the tracker settings.
type Config struct {
	// WindowSize is the number of most recent intervals kept per position.
	WindowSize int
	// MinSamples is the number of intervals required before a threshold is reported.
	MinSamples int
	// SafetyCoefficient scales the median interval into a threshold.
	SafetyCoefficient float64
	// MaxGap is the largest interval still counted as regular spacing.
	MaxGap time.Duration
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:        DefaultWindowSize,
		MinSamples:        DefaultMinSamples,
		SafetyCoefficient: DefaultSafetyCoefficient,
		MaxGap:            DefaultMaxGap,
	}
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	var errs []error
	if c.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %d", c.WindowSize))
	}
	if c.MinSamples <= 0 || c.MinSamples > c.WindowSize {
		errs = append(errs, fmt.Errorf("min samples must be in [1, %d], got %d", c.WindowSize, c.MinSamples))
	}
	if c.SafetyCoefficient <= 0 {
		errs = append(errs, fmt.Errorf("safety coefficient must be positive, got %v", c.SafetyCoefficient))
	}
	if c.MaxGap <= 0 {
		errs = append(errs, fmt.Errorf("max gap must be positive, got %v", c.MaxGap))
	}
	return errors.Join(errs...)
}

// Tracker implements `contracts.IntervalTracker`.
type Tracker struct {
	config Config
	logger logr.Logger

	// lastArrivals holds the last arrival time per position.
	lastArrivals *ttlcache.Cache[int, time.Time]

	mu      sync.Mutex
	samples map[int][]time.Duration
}

var _ contracts.IntervalTracker = &Tracker{}

// New creates a Tracker.
func New(config Config, logger logr.Logger) (*Tracker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid interval tracker config: %w", err)
	}
	return &Tracker{
		config: config,
		logger: logger.WithName("interval-tracker"),
		lastArrivals: ttlcache.New(
			ttlcache.WithTTL[int, time.Time](config.MaxGap),
			ttlcache.WithDisableTouchOnHit[int, time.Time](),
		),
		samples: make(map[int][]time.Duration),
	}, nil
}

// Run evicts idle positions until the context is done.
func (t *Tracker) Run(ctx context.Context) {
	go t.lastArrivals.Start()
	<-ctx.Done()
	t.lastArrivals.Stop()
}

// RecordArrival records a parcel arriving at the position.
func (t *Tracker) RecordArrival(positionIndex int, at time.Time) {
	previous := t.lastArrivals.Get(positionIndex)
	t.lastArrivals.Set(positionIndex, at, ttlcache.DefaultTTL)
	if previous == nil {
		return
	}

	interval := at.Sub(previous.Value())
	if interval <= 0 || interval > t.config.MaxGap {
		t.logger.V(logutil.DEBUG).Info("Discarding irregular arrival interval", "position", positionIndex,
			"interval", interval)
		return
	}

	t.mu.Lock()
	window := append(t.samples[positionIndex], interval)
	if len(window) > t.config.WindowSize {
		window = window[len(window)-t.config.WindowSize:]
	}
	t.samples[positionIndex] = window
	t.mu.Unlock()
}

// GetLostDetectionThreshold returns median(recent intervals) * SafetyCoefficient in milliseconds.
func (t *Tracker) GetLostDetectionThreshold(positionIndex int) (float64, bool) {
	t.mu.Lock()
	window := slices.Clone(t.samples[positionIndex])
	t.mu.Unlock()

	if len(window) < t.config.MinSamples {
		return 0, false
	}
	return float64(median(window)) / float64(time.Millisecond) * t.config.SafetyCoefficient, true
}

// Reset forgets all history.
func (t *Tracker) Reset() {
	t.lastArrivals.DeleteAll()
	t.mu.Lock()
	t.samples = make(map[int][]time.Duration)
	t.mu.Unlock()
}

func median(values []time.Duration) time.Duration {
	slices.Sort(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
