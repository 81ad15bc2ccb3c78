// Package workflow defines the asset approval lifecycle: the status set, the
// fixed transition table, and the per-stage decision sets layered on top of
// it. Everything here is pure; enforcement with side effects lives in the
// governance service.
package workflow

import "strings"

// Status is the lifecycle state of a creative asset.
type Status string

const (
	StatusPendingA Status = "pending_a"
	StatusPendingB Status = "pending_b"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var allStatuses = []Status{
	StatusPendingA,
	StatusPendingB,
	StatusApproved,
	StatusRejected,
}

// allowedTransitions is the single source of truth for reachability.
// Approved and rejected are terminal.
var allowedTransitions = map[Status][]Status{
	StatusPendingA: {StatusPendingB, StatusRejected},
	StatusPendingB: {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
}

// CanTransition reports whether target is reachable from current in one
// step per the transition table.
func CanTransition(current, target Status) bool {
	for _, next := range allowedTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status Status) bool {
	return len(allowedTransitions[status]) == 0
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusPendingA, StatusPendingB, StatusApproved, StatusRejected:
		return normalized, true
	}
	return "", false
}

// Stage identifies which human review gate an actor operates.
type Stage string

const (
	StageA Stage = "a"
	StageB Stage = "b"
)

// stageDecisions restricts what each stage may request, independent of the
// transition table. A stage-A actor cannot approve even though the table
// question never comes up.
var stageDecisions = map[Stage][]Status{
	StageA: {StatusPendingB, StatusRejected},
	StageB: {StatusApproved, StatusRejected},
}

// DecisionAllowed reports whether the stage may request the given target
// status at all.
func DecisionAllowed(stage Stage, decision Status) bool {
	for _, allowed := range stageDecisions[stage] {
		if allowed == decision {
			return true
		}
	}
	return false
}
