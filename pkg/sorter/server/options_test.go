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

package server

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/intervaltracker"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name            string
		args            []string
		expectError     bool
		expectedTracker intervaltracker.Config
	}{
		{
			name:            "Defaults",
			expectedTracker: intervaltracker.DefaultConfig(),
		},
		{
			name: "Custom tracker flags",
			args: []string{
				"--interval-window-size", "50",
				"--interval-min-samples", "10",
				"--interval-safety-coefficient", "2.5",
				"--interval-max-gap", "1m",
			},
			expectedTracker: intervaltracker.Config{
				WindowSize:        50,
				MinSamples:        10,
				SafetyCoefficient: 2.5,
				MaxGap:            time.Minute,
			},
		},
		{
			name:        "Min samples above window size",
			args:        []string{"--interval-window-size", "5", "--interval-min-samples", "6"},
			expectError: true,
		},
		{
			name:        "Non-positive safety coefficient",
			args:        []string{"--interval-safety-coefficient", "0"},
			expectError: true,
		},
		{
			name:        "Negative status report interval",
			args:        []string{"--status-report-interval", "-1s"},
			expectError: true,
		},
		{
			name:        "Metrics address without port",
			args:        []string{"--metrics-addr", "localhost"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := pflag.NewFlagSet(tt.name, pflag.ContinueOnError)

			opts := NewOptions()
			opts.AddFlags(fs)

			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("Failed to parse flags: %v", err)
			}
			if err := opts.Complete(); err != nil {
				t.Fatalf("Complete failed unexpectedly with error: %v", err)
			}

			err := opts.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected a validation error but got none.")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate failed unexpectedly with error: %v", err)
			}

			if diff := cmp.Diff(tt.expectedTracker, opts.IntervalTrackerConfig()); diff != "" {
				t.Errorf("Tracker config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestZapLevelFromVerbosity(t *testing.T) {
	fs := pflag.NewFlagSet("verbosity", pflag.ContinueOnError)
	opts := NewOptions()
	opts.AddFlags(fs)
	if err := fs.Parse([]string{"-v", "4"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	if err := opts.Complete(); err != nil {
		t.Fatalf("Complete failed unexpectedly with error: %v", err)
	}
	if opts.ZapOptions.Level == nil || !opts.ZapOptions.Level.Enabled(zapcore.Level(-4)) {
		t.Errorf("Expected zap level -4 to be enabled after -v 4")
	}
	if opts.ZapOptions.Level.Enabled(zapcore.Level(-5)) {
		t.Errorf("Expected zap level -5 to stay disabled after -v 4")
	}
}
