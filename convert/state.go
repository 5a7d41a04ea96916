// SPDX-License-Identifier: EPL-2.0

package convert

import "math"

// State is a step of a single conversion. A conversion only moves forward.
type State int

const (
	Idle State = iota
	Preparing
	Normalizing
	Configuring
	Executing
	Finalizing
	Succeeded
	Failed
)

var stateNames = [...]string{
	Idle:        "idle",
	Preparing:   "preparing",
	Normalizing: "normalizing",
	Configuring: "configuring",
	Executing:   "executing",
	Finalizing:  "finalizing",
	Succeeded:   "succeeded",
	Failed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s ends a conversion.
func (s State) Terminal() bool { return s == Succeeded || s == Failed }

// Percent turns an engine ratio into a whole percentage, rounding half away
// from zero: 0.307 → 31, 0.125 → 13. The result is clamped to [0, 100].
func Percent(ratio float64) int {
	if math.IsNaN(ratio) {
		return 0
	}
	return int(min(max(math.Round(ratio*100), 0), 100))
}
