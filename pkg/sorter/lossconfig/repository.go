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

// Package lossconfig provides `contracts.LossDetectionConfigRepository` implementations.
package lossconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/contracts"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
	logutil "github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

// debounceDelay wait for events to settle before reloading
const debounceDelay = 250 * time.Millisecond

// StaticRepository always returns the same configuration.
type StaticRepository struct {
	Config types.LossDetectionConfig
}

func (r StaticRepository) Get() (types.LossDetectionConfig, error) { return r.Config, nil }

// fileConfig is the on-disk document. A missing `enabled` key keeps detection enabled.
type fileConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// loadResult is the outcome of the latest read of the file.
type loadResult struct {
	config types.LossDetectionConfig
	err    error
}

// FileRepository serves the loss-detection configuration from a YAML file and reloads it when the file changes.
// Until the file can be read and parsed, Get reports `contracts.ErrConfigUnavailable`.
type FileRepository struct {
	path    string
	current atomic.Pointer[loadResult]
}

var (
	_ contracts.LossDetectionConfigRepository = StaticRepository{}
	_ contracts.LossDetectionConfigRepository = &FileRepository{}
)

// NewFileRepository loads the file and watches its directory until the context is done. A missing or invalid file is
// not an error here; it is reported by Get until a valid file appears.
func NewFileRepository(ctx context.Context, path string) (*FileRepository, error) {
	r := &FileRepository{path: path}
	r.reload()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create loss detection config watcher: %w", err)
	}

	logger := log.FromContext(ctx).
		WithName("loss-detection-config").
		WithValues("path", path)
	traceLogger := logger.V(logutil.TRACE)

	// Watch the directory so that atomic replacements (rename over the file) are seen.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}

	if res := r.current.Load(); res.err != nil {
		logger.Info("Loss detection config not readable yet, detection stays enabled", "error", res.err.Error())
	}

	go func() {
		defer w.Close()

		var debounceTimer *time.Timer

		for {
			select {
			case ev := <-w.Events:
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				traceLogger.Info("Loss detection config changed", "event", ev)

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					r.reload()
					if res := r.current.Load(); res.err != nil {
						logger.Error(res.err, "Failed to reload loss detection config")
						return
					}
					logger.V(logutil.DEFAULT).Info("Reloaded loss detection config",
						"enabled", r.current.Load().config.IsEnabled)
				})

			case err := <-w.Errors:
				if err != nil {
					logger.Error(err, "loss detection config watcher failed")
				}
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			}
		}
	}()

	return r, nil
}

// Get returns the latest successfully parsed configuration.
func (r *FileRepository) Get() (types.LossDetectionConfig, error) {
	res := r.current.Load()
	if res.err != nil {
		return types.DefaultLossDetectionConfig(), fmt.Errorf("%w: %w", contracts.ErrConfigUnavailable, res.err)
	}
	return res.config, nil
}

func (r *FileRepository) reload() {
	config, err := readFile(r.path)
	r.current.Store(&loadResult{config: config, err: err})
}

func readFile(path string) (types.LossDetectionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.LossDetectionConfig{}, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a loss-detection document.
func Parse(data []byte) (types.LossDetectionConfig, error) {
	var doc fileConfig
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return types.LossDetectionConfig{}, fmt.Errorf("failed to parse loss detection config: %w", err)
	}
	config := types.DefaultLossDetectionConfig()
	if doc.Enabled != nil {
		config.IsEnabled = *doc.Enabled
	}
	return config, nil
}
