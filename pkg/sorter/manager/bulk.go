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

package manager

import (
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/metrics"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/queue"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
	logutil "github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

// RemoveAllTasksForParcel tombstones the parcel's task at every position and returns how many positions held one.
// It is used once a parcel is confirmed lost: none of its remaining actuations may fire.
func (m *QueueManager) RemoveAllTasksForParcel(parcelID int64) int {
	var removed []int
	m.forEachQueue(func(q *queue.PositionQueue) {
		if q.LogicalDelete(parcelID) {
			removed = append(removed, q.PositionIndex())
		}
	})

	for _, position := range removed {
		metrics.RecordLogicalDeletion(position, metrics.DeletionReasonParcelRemoved)
	}
	m.logger.V(logutil.DEFAULT).Info("Removed all tasks for parcel", "parcelID", parcelID,
		"positions", removed, "count", len(removed))
	return len(removed)
}

// UpdateAffectedParcelsToStraight degrades every live task created in (lostCreatedAt, detectionTime] to the safe
// diverter action and clears its loss-detection fields. The arrival predictions of those parcels were made while the
// lost parcel was still counted on the belt and can no longer be trusted.
//
// Tasks already on the safe action are still touched and still reported. The returned parcel ids are deduplicated
// across positions and sorted.
func (m *QueueManager) UpdateAffectedParcelsToStraight(lostCreatedAt, detectionTime time.Time) []int64 {
	inWindow := func(task types.Task) bool {
		return task.CreatedAt.After(lostCreatedAt) && !task.CreatedAt.After(detectionTime)
	}
	toSafeAction := func(task types.Task) types.Task {
		return task.WithAction(types.SafeDiverterAction).WithoutLossDetection()
	}

	affected := sets.New[int64]()
	touched := 0
	m.forEachQueue(func(q *queue.PositionQueue) {
		ids := q.UpdateWhere(inWindow, toSafeAction)
		touched += len(ids)
		affected.Insert(ids...)
	})

	parcelIDs := sets.List(affected)
	metrics.RecordAffectedParcels(len(parcelIDs))
	m.logger.V(logutil.DEFAULT).Info("Degraded parcels affected by a lost parcel to the safe action",
		"lostCreatedAt", lostCreatedAt, "detectionTime", detectionTime,
		"affectedParcels", len(parcelIDs), "touchedTasks", touched)
	return parcelIDs
}

// ReplaceTasksInPlace installs a re-planned route for the parcel.
//
// For each entry of `newTasks`, the parcel's live task at that position keeps its order slot and takes over the
// entry's route-dependent fields (see `types.Task.WithRouteFrom`). Positions without a live task are reported as not
// found. Entries naming another parcel, or repeating a position, are skipped. Afterwards every position outside the
// new route that still holds a live task for the parcel is tombstoned and reported as removed, so no stale command
// can fire at a position the parcel no longer passes.
func (m *QueueManager) ReplaceTasksInPlace(parcelID int64, newTasks []types.Task) types.ReplacementResult {
	result := types.ReplacementResult{ParcelID: parcelID}
	route := sets.New[int]()

	for _, newTask := range newTasks {
		if newTask.ParcelID != parcelID || route.Has(newTask.PositionIndex) {
			result.SkippedPositions = append(result.SkippedPositions, newTask.PositionIndex)
			continue
		}
		route.Insert(newTask.PositionIndex)

		replaced := false
		if q, ok := m.existingQueue(newTask.PositionIndex); ok {
			replaced = q.Update(parcelID, func(current types.Task) types.Task {
				return current.WithRouteFrom(newTask)
			})
		}
		if replaced {
			result.ReplacedPositions = append(result.ReplacedPositions, newTask.PositionIndex)
		} else {
			result.NotFoundPositions = append(result.NotFoundPositions, newTask.PositionIndex)
		}
	}

	m.forEachQueue(func(q *queue.PositionQueue) {
		if route.Has(q.PositionIndex()) {
			return
		}
		if q.LogicalDelete(parcelID) {
			result.RemovedPositions = append(result.RemovedPositions, q.PositionIndex())
		}
	})

	m.recordReplacement(result)
	return result
}

func (m *QueueManager) recordReplacement(result types.ReplacementResult) {
	for _, position := range result.RemovedPositions {
		metrics.RecordLogicalDeletion(position, metrics.DeletionReasonGhostCleanup)
	}
	outcome := result.Outcome()
	metrics.RecordReplacement(outcomeLabel(outcome))

	logger := m.logger.WithValues("parcelID", result.ParcelID, "outcome", outcome.String(),
		"replaced", result.ReplacedPositions, "notFound", result.NotFoundPositions,
		"skipped", result.SkippedPositions, "removed", result.RemovedPositions)
	if outcome == types.ReplacementFullSuccess && result.RemovedCount() == 0 {
		logger.V(logutil.DEBUG).Info("Replaced parcel route in place")
		return
	}
	logger.V(logutil.DEFAULT).Info("Replaced parcel route in place")
}

func outcomeLabel(outcome types.ReplacementOutcome) string {
	switch outcome {
	case types.ReplacementFullSuccess:
		return "full"
	case types.ReplacementPartialSuccess:
		return "partial"
	default:
		return "no_effect"
	}
}
