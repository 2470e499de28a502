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
	"errors"
	"flag"
	"fmt"
	"net"
	"time"

	"github.com/spf13/pflag"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/intervaltracker"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

const (
	DefaultMetricsAddr  = ":9090"
	ZapLogLevelFlagName = "zap-log-level"
)

// Options contains configuration values necessary to create and run the queue manager.
type Options struct {
	//
	// Serving.
	//
	MetricsAddr          string        // Address serving /metrics, /healthz and /statusz.
	StatusReportInterval time.Duration // Interval between queue status reports. Zero disables them.
	//
	// Loss detection.
	//
	LossDetectionConfigFile string // YAML file holding the loss detection switch. Empty means always enabled.
	//
	// Arrival interval tracking.
	//
	IntervalWindowSize        int
	IntervalMinSamples        int
	IntervalSafetyCoefficient float64
	IntervalMaxGap            time.Duration
	//
	// Diagnostics.
	//
	LogVerbosity int         // Number for the log level verbosity.
	ZapOptions   zap.Options // Zap logging options

	// internal
	fs *pflag.FlagSet // FlagSet used in AddFlags() and consulted in Complete()
}

// NewOptions returns a new Options struct initialized with the default values.
func NewOptions() *Options {
	tracker := intervaltracker.DefaultConfig()
	return &Options{
		MetricsAddr:               DefaultMetricsAddr,
		StatusReportInterval:      10 * time.Second,
		IntervalWindowSize:        tracker.WindowSize,
		IntervalMinSamples:        tracker.MinSamples,
		IntervalSafetyCoefficient: tracker.SafetyCoefficient,
		IntervalMaxGap:            tracker.MaxGap,
		LogVerbosity:              logging.DEFAULT,
		ZapOptions:                zap.Options{Development: true},
	}
}

func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	opts.fs = fs

	fs.StringVar(&opts.MetricsAddr, "metrics-addr", opts.MetricsAddr,
		"Address serving the /metrics, /healthz and /statusz endpoints.")
	fs.DurationVar(&opts.StatusReportInterval, "status-report-interval", opts.StatusReportInterval,
		"Interval between queue status reports. Set to 0 to disable them.")
	fs.StringVar(&opts.LossDetectionConfigFile, "loss-detection-config-file", opts.LossDetectionConfigFile,
		"Path to a YAML file of the form 'enabled: <bool>'. The file is watched and reloaded on change. "+
			"If not set, loss detection is always enabled.")
	fs.IntVar(&opts.IntervalWindowSize, "interval-window-size", opts.IntervalWindowSize,
		"Number of recent arrival intervals kept per position.")
	fs.IntVar(&opts.IntervalMinSamples, "interval-min-samples", opts.IntervalMinSamples,
		"Number of arrival intervals required before a dynamic loss threshold is reported.")
	fs.Float64Var(&opts.IntervalSafetyCoefficient, "interval-safety-coefficient", opts.IntervalSafetyCoefficient,
		"Multiplier applied to the median arrival interval to form the dynamic loss threshold.")
	fs.DurationVar(&opts.IntervalMaxGap, "interval-max-gap", opts.IntervalMaxGap,
		"Largest arrival interval still counted as regular spacing.")
	fs.IntVarP(&opts.LogVerbosity, "v", "v", opts.LogVerbosity, "Number for the log level verbosity.") // allow both --v and -v
	gofs := flag.NewFlagSet("zap", flag.ExitOnError)
	opts.ZapOptions.BindFlags(gofs) // zap expects a standard Go FlagSet and pflag.FlagSet is not compatible.
	fs.AddGoFlagSet(gofs)
}

func (opts *Options) Complete() error {
	// ensure zap log level is set - explicitly by user or from "-v"
	zapLogLevelFlag := opts.fs.Lookup(ZapLogLevelFlagName)
	if zapLogLevelFlag != nil && !zapLogLevelFlag.Changed { // not set explicitly
		lvl := -1 * (opts.LogVerbosity) // See https://pkg.go.dev/sigs.k8s.io/controller-runtime/pkg/log/zap#Options.Level
		opts.ZapOptions.Level = uberzap.NewAtomicLevelAt(zapcore.Level(int8(lvl)))
		zapLogLevelFlag.Changed = true
	}
	return nil
}

func (opts *Options) Validate() error {
	if _, _, err := net.SplitHostPort(opts.MetricsAddr); err != nil {
		return fmt.Errorf("invalid %q value %q: %w", "metrics-addr", opts.MetricsAddr, err)
	}
	if opts.StatusReportInterval < 0 {
		return errors.New("status-report-interval must not be negative")
	}
	if err := opts.IntervalTrackerConfig().Validate(); err != nil {
		return fmt.Errorf("invalid interval tracker flags: %w", err)
	}
	return nil
}

// IntervalTrackerConfig returns the tracker settings carried by the flags.
func (opts *Options) IntervalTrackerConfig() intervaltracker.Config {
	return intervaltracker.Config{
		WindowSize:        opts.IntervalWindowSize,
		MinSamples:        opts.IntervalMinSamples,
		SafetyCoefficient: opts.IntervalSafetyCoefficient,
		MaxGap:            opts.IntervalMaxGap,
	}
}
