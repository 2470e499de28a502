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

import (
	"fmt"
	"strconv"
	"strings"
)

// DiverterAction is the physical direction command issued to a wheel diverter.
//
// The zero value is `DiverterActionStraight`, the safe default: the parcel passes the diverter without being
// turned off the line.
type DiverterAction int

const (
	// DiverterActionStraight lets the parcel continue along the main line.
	DiverterActionStraight DiverterAction = iota
	// DiverterActionLeft turns the parcel off the line to the left.
	DiverterActionLeft
	// DiverterActionRight turns the parcel off the line to the right.
	DiverterActionRight
)

// SafeDiverterAction is the action substituted when a task's prediction can no longer be trusted.
const SafeDiverterAction = DiverterActionStraight

// String returns a human-readable string representation of the DiverterAction.
func (a DiverterAction) String() string {
	switch a {
	case DiverterActionStraight:
		return "Straight"
	case DiverterActionLeft:
		return "Left"
	case DiverterActionRight:
		return "Right"
	default:
		return "UnknownAction(" + strconv.Itoa(int(a)) + ")"
	}
}

// MarshalText encodes the action by name so status reports stay readable.
func (a DiverterAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name, case-insensitively.
func (a *DiverterAction) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "straight":
		*a = DiverterActionStraight
	case "left":
		*a = DiverterActionLeft
	case "right":
		*a = DiverterActionRight
	default:
		return fmt.Errorf("unknown diverter action %q", string(text))
	}
	return nil
}
