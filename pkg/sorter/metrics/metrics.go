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

// Package metrics instruments the diverter task sequencing core with Prometheus collectors.
package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	compbasemetrics "k8s.io/component-base/metrics"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	SorterQueueComponent = "sorter_queue"

	// Enqueue kinds.
	EnqueueKindNew      = "new"
	EnqueueKindMerge    = "merge"
	EnqueueKindPriority = "priority"

	// Logical deletion reasons.
	DeletionReasonParcelRemoved = "parcel_removed"
	DeletionReasonGhostCleanup  = "ghost_cleanup"
)

var (
	PositionLabels = []string{"position"}
)

var (
	dequeueSkipLimitReached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: SorterQueueComponent,
			Name:      "dequeue_skip_limit_reached_total",
			Help:      HelpMsgWithStability("Number of dequeues that gave up after skipping the maximum number of tombstoned slots.", compbasemetrics.ALPHA),
		},
		PositionLabels,
	)

	peekScanLimitReached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: SorterQueueComponent,
			Name:      "peek_scan_limit_reached_total",
			Help:      HelpMsgWithStability("Number of peeks that gave up after scanning the maximum number of slots.", compbasemetrics.ALPHA),
		},
		PositionLabels,
	)

	tombstonesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: SorterQueueComponent,
			Name:      "tombstones_skipped_total",
			Help:      HelpMsgWithStability("Number of tombstoned order slots discarded by dequeue.", compbasemetrics.ALPHA),
		},
		PositionLabels,
	)

	enqueueCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: SorterQueueComponent,
			Name:      "enqueue_total",
			Help:      HelpMsgWithStability("Number of enqueue operations broken out by position and kind (new, merge, priority).", compbasemetrics.ALPHA),
		},
		append(PositionLabels, "kind"),
	)

	logicalDeletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: SorterQueueComponent,
			Name:      "logical_deletions_total",
			Help:      HelpMsgWithStability("Number of tasks tombstoned, broken out by position and reason.", compbasemetrics.ALPHA),
		},
		append(PositionLabels, "reason"),
	)

	queueTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: SorterQueueComponent,
			Name:      "tasks",
			Help:      HelpMsgWithStability("Number of live tasks per position.", compbasemetrics.ALPHA),
		},
		PositionLabels,
	)

	affectedParcels = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: SorterQueueComponent,
			Name:      "affected_parcels_total",
			Help:      HelpMsgWithStability("Number of parcels degraded to the safe action after a parcel loss.", compbasemetrics.ALPHA),
		},
	)

	replacements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: SorterQueueComponent,
			Name:      "replacements_total",
			Help:      HelpMsgWithStability("Number of in-place route replacements broken out by outcome.", compbasemetrics.ALPHA),
		},
		[]string{"outcome"},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register(customCollectors ...prometheus.Collector) {
	registerMetrics.Do(func() {
		metrics.Registry.MustRegister(dequeueSkipLimitReached)
		metrics.Registry.MustRegister(peekScanLimitReached)
		metrics.Registry.MustRegister(tombstonesSkipped)
		metrics.Registry.MustRegister(enqueueCounter)
		metrics.Registry.MustRegister(logicalDeletions)
		metrics.Registry.MustRegister(queueTasks)
		metrics.Registry.MustRegister(affectedParcels)
		metrics.Registry.MustRegister(replacements)
		for _, collector := range customCollectors {
			metrics.Registry.MustRegister(collector)
		}
	})
}

// Just for tests.
func Reset() {
	dequeueSkipLimitReached.Reset()
	peekScanLimitReached.Reset()
	tombstonesSkipped.Reset()
	enqueueCounter.Reset()
	logicalDeletions.Reset()
	queueTasks.Reset()
	replacements.Reset()
}

// HelpMsgWithStability prefixes a help message with its stability level, as component-base metrics do.
func HelpMsgWithStability(msg string, stability compbasemetrics.StabilityLevel) string {
	return fmt.Sprintf("[%v] %v", stability, msg)
}

func positionLabel(positionIndex int) string {
	return strconv.Itoa(positionIndex)
}

// RecordDequeueSkipLimitReached records a dequeue that hit the tombstone skip limit.
func RecordDequeueSkipLimitReached(positionIndex int) {
	dequeueSkipLimitReached.WithLabelValues(positionLabel(positionIndex)).Inc()
}

// RecordPeekScanLimitReached records a peek that hit the scan limit.
func RecordPeekScanLimitReached(positionIndex int) {
	peekScanLimitReached.WithLabelValues(positionLabel(positionIndex)).Inc()
}

// RecordTombstonesSkipped records the number of tombstoned slots a dequeue discarded.
func RecordTombstonesSkipped(positionIndex int, count int) {
	if count > 0 {
		tombstonesSkipped.WithLabelValues(positionLabel(positionIndex)).Add(float64(count))
	}
}

// RecordEnqueue records an enqueue of the given kind.
func RecordEnqueue(positionIndex int, kind string) {
	enqueueCounter.WithLabelValues(positionLabel(positionIndex), kind).Inc()
}

// RecordLogicalDeletion records a tombstoned task.
func RecordLogicalDeletion(positionIndex int, reason string) {
	logicalDeletions.WithLabelValues(positionLabel(positionIndex), reason).Inc()
}

// RecordQueueTasks sets the live task gauge of a position.
func RecordQueueTasks(positionIndex int, count int) {
	queueTasks.WithLabelValues(positionLabel(positionIndex)).Set(float64(count))
}

// RecordAffectedParcels records parcels degraded to the safe action.
func RecordAffectedParcels(count int) {
	if count > 0 {
		affectedParcels.Add(float64(count))
	}
}

// RecordReplacement records the outcome of an in-place route replacement.
func RecordReplacement(outcome string) {
	replacements.WithLabelValues(outcome).Inc()
}
