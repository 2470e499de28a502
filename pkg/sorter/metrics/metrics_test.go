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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	compbasemetrics "k8s.io/component-base/metrics"
)

func TestRecordCounters(t *testing.T) {
	Register()
	Reset()

	RecordDequeueSkipLimitReached(1)
	RecordDequeueSkipLimitReached(1)
	RecordPeekScanLimitReached(2)
	RecordTombstonesSkipped(1, 40)
	RecordTombstonesSkipped(1, 0)
	RecordEnqueue(1, EnqueueKindNew)
	RecordEnqueue(1, EnqueueKindMerge)
	RecordEnqueue(1, EnqueueKindNew)
	RecordLogicalDeletion(3, DeletionReasonGhostCleanup)
	RecordQueueTasks(1, 12)
	RecordQueueTasks(1, 7)
	RecordReplacement("partial")

	assert.Equal(t, float64(2), testutil.ToFloat64(dequeueSkipLimitReached.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(peekScanLimitReached.WithLabelValues("2")))
	assert.Equal(t, float64(40), testutil.ToFloat64(tombstonesSkipped.WithLabelValues("1")))
	assert.Equal(t, float64(2), testutil.ToFloat64(enqueueCounter.WithLabelValues("1", EnqueueKindNew)))
	assert.Equal(t, float64(1), testutil.ToFloat64(enqueueCounter.WithLabelValues("1", EnqueueKindMerge)))
	assert.Equal(t, float64(1), testutil.ToFloat64(logicalDeletions.WithLabelValues("3", DeletionReasonGhostCleanup)))
	assert.Equal(t, float64(7), testutil.ToFloat64(queueTasks.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(replacements.WithLabelValues("partial")))
}

func TestRecordAffectedParcels(t *testing.T) {
	before := testutil.ToFloat64(affectedParcels)
	RecordAffectedParcels(3)
	RecordAffectedParcels(0)
	assert.Equal(t, before+3, testutil.ToFloat64(affectedParcels))
}

func TestHelpMsgWithStability(t *testing.T) {
	assert.Equal(t, "[ALPHA] Number of things.", HelpMsgWithStability("Number of things.", compbasemetrics.ALPHA))
}
