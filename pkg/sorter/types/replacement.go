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

package types

import "strconv"

// ReplacementOutcome classifies the overall effect of an in-place route replacement.
type ReplacementOutcome int

const (
	// ReplacementNoEffect indicates that nothing was replaced and nothing was removed.
	ReplacementNoEffect ReplacementOutcome = iota
	// ReplacementPartialSuccess indicates that some entries of the new route were applied while others were not found
	// (typically already consumed) or skipped.
	ReplacementPartialSuccess
	// ReplacementFullSuccess indicates that every entry of the new route was applied.
	ReplacementFullSuccess
)

// String returns a human-readable string representation of the ReplacementOutcome.
func (o ReplacementOutcome) String() string {
	switch o {
	case ReplacementNoEffect:
		return "NoEffect"
	case ReplacementPartialSuccess:
		return "PartialSuccess"
	case ReplacementFullSuccess:
		return "FullSuccess"
	default:
		return "UnknownOutcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// ReplacementResult records what an in-place route replacement did at each position.
// It is returned, never raised: callers decide how to react to partial success.
type ReplacementResult struct {
	ParcelID int64
	// ReplacedPositions held a live task for the parcel that was updated in its existing order slot.
	ReplacedPositions []int
	// NotFoundPositions are positions of the new route with no live task for the parcel.
	NotFoundPositions []int
	// SkippedPositions are entries of the new route that were not applied because they named a different parcel or
	// repeated a position already seen.
	SkippedPositions []int
	// RemovedPositions held a live task for the parcel but are no longer on its route; the task was tombstoned.
	RemovedPositions []int
}

func (r ReplacementResult) ReplacedCount() int { return len(r.ReplacedPositions) }
func (r ReplacementResult) NotFoundCount() int { return len(r.NotFoundPositions) }
func (r ReplacementResult) SkippedCount() int  { return len(r.SkippedPositions) }
func (r ReplacementResult) RemovedCount() int  { return len(r.RemovedPositions) }

// Outcome classifies the result.
func (r ReplacementResult) Outcome() ReplacementOutcome {
	if r.ReplacedCount() == 0 && r.RemovedCount() == 0 {
		return ReplacementNoEffect
	}
	if r.NotFoundCount() > 0 || r.SkippedCount() > 0 {
		return ReplacementPartialSuccess
	}
	return ReplacementFullSuccess
}
