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

package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/intervaltracker"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/lossconfig"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/manager"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/metrics"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/server"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/threshold"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/version"
)

const shutdownTimeout = 5 * time.Second

var setupLog = ctrl.Log.WithName("setup")

// Runner assembles the queue manager and its supporting services.
type Runner struct {
	opts *server.Options
	args []string
}

func NewRunner() *Runner {
	return &Runner{opts: server.NewOptions(), args: os.Args[1:]}
}

// WithArgs overrides the command line arguments parsed by Run.
func (r *Runner) WithArgs(args []string) *Runner {
	r.args = args
	return r
}

// bindEnvToFlags applies environment variables as soft overrides of the flag defaults.
func bindEnvToFlags(fs *pflag.FlagSet) {
	for env, flg := range map[string]string{
		"METRICS_ADDR":                "metrics-addr",
		"STATUS_REPORT_INTERVAL":      "status-report-interval",
		"LOSS_DETECTION_CONFIG_FILE":  "loss-detection-config-file",
		"INTERVAL_WINDOW_SIZE":        "interval-window-size",
		"INTERVAL_MIN_SAMPLES":        "interval-min-samples",
		"INTERVAL_SAFETY_COEFFICIENT": "interval-safety-coefficient",
		"INTERVAL_MAX_GAP":            "interval-max-gap",
	} {
		if v := os.Getenv(env); v != "" {
			// ignore error; Parse() will catch invalid values later
			_ = fs.Set(flg, v)
		}
	}
}

func (r *Runner) Run(ctx context.Context) error {
	logging.InitSetupLogging()

	fs := pflag.NewFlagSet("queuemanager", pflag.ContinueOnError)
	r.opts.AddFlags(fs)
	bindEnvToFlags(fs)
	if err := fs.Parse(r.args); err != nil {
		setupLog.Error(err, "Failed to parse flags")
		return err
	}
	if err := r.opts.Complete(); err != nil {
		setupLog.Error(err, "Failed to complete options")
		return err
	}
	if err := r.opts.Validate(); err != nil {
		setupLog.Error(err, "Failed to validate flags")
		return err
	}
	logging.InitLogging(&r.opts.ZapOptions)

	setupLog.Info("Queue manager build", version.Info()...)

	flags := make(map[string]any)
	fs.VisitAll(func(f *pflag.Flag) {
		flags[f.Name] = f.Value
	})
	setupLog.Info("Flags processed", "flags", flags)

	metrics.Register()

	tracker, err := intervaltracker.New(r.opts.IntervalTrackerConfig(), ctrl.Log)
	if err != nil {
		setupLog.Error(err, "Failed to create interval tracker")
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var lossConfig contracts.LossDetectionConfigRepository = lossconfig.StaticRepository{
		Config: types.DefaultLossDetectionConfig(),
	}
	if path := r.opts.LossDetectionConfigFile; path != "" {
		fileRepo, err := lossconfig.NewFileRepository(gctx, path)
		if err != nil {
			setupLog.Error(err, "Failed to watch loss detection config", "path", path)
			return err
		}
		lossConfig = fileRepo
		setupLog.Info("Watching loss detection config", "path", path)
	}

	policy := threshold.NewPolicy(tracker, lossConfig, ctrl.Log)
	mgr := manager.NewQueueManager(ctrl.Log, manager.WithThresholdPolicy(policy))

	g.Go(func() error {
		tracker.Run(gctx)
		return nil
	})

	if interval := r.opts.StatusReportInterval; interval > 0 {
		reporter := ctrl.Log.WithName("status-reporter")
		g.Go(func() error {
			wait.UntilWithContext(gctx, func(context.Context) {
				reportStatuses(reporter, mgr)
			}, interval)
			return nil
		})
	}

	srv := &http.Server{
		Addr:              r.opts.MetricsAddr,
		Handler:           newHandler(mgr, ctrl.Log.WithName("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		setupLog.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	setupLog.Info("Queue manager running")
	if err := g.Wait(); err != nil {
		setupLog.Error(err, "Queue manager terminated with error")
		return err
	}
	setupLog.Info("Queue manager terminated")
	return nil
}
