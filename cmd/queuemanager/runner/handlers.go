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
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/manager"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/metrics"
	logutil "github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

// newHandler serves the Prometheus registry, a liveness probe and a JSON snapshot of every queue.
func newHandler(mgr *manager.QueueManager, logger logr.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ctrlmetrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/statusz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mgr.GetAllQueueStatuses()); err != nil {
			logger.Error(err, "Failed to encode queue statuses")
		}
	})
	return mux
}

// reportStatuses refreshes the per-position depth gauge and logs every queue status.
func reportStatuses(logger logr.Logger, mgr *manager.QueueManager) {
	statuses := mgr.GetAllQueueStatuses()
	for _, position := range mgr.Positions() {
		status, ok := statuses[position]
		if !ok {
			continue
		}
		metrics.RecordQueueTasks(position, status.TaskCount)
		if status.HeadTask != nil {
			logger.V(logutil.VERBOSE).Info("Queue status", "position", position, "tasks", status.TaskCount,
				"headParcel", status.HeadTask.ParcelID, "headAction", status.HeadTask.DiverterAction,
				"lastEnqueue", status.LastEnqueueTime, "lastDequeue", status.LastDequeueTime)
			continue
		}
		logger.V(logutil.DEBUG).Info("Queue status", "position", position, "tasks", status.TaskCount)
	}
}
