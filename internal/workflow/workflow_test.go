package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Table(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPendingA: {StatusPendingB: true, StatusRejected: true},
		StatusPendingB: {StatusApproved: true, StatusRejected: true},
		StatusApproved: {},
		StatusRejected: {},
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := allowed[from][to]
			assert.Equal(t, want, CanTransition(from, to), "from=%s to=%s", from, to)
		}
	}
}

func TestCanTransition_TerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminal(StatusApproved))
	assert.True(t, IsTerminal(StatusRejected))
	assert.False(t, IsTerminal(StatusPendingA))
	assert.False(t, IsTerminal(StatusPendingB))

	for _, to := range AllStatuses() {
		assert.False(t, CanTransition(StatusApproved, to))
		assert.False(t, CanTransition(StatusRejected, to))
	}
}

func TestDecisionAllowed(t *testing.T) {
	assert.True(t, DecisionAllowed(StageA, StatusPendingB))
	assert.True(t, DecisionAllowed(StageA, StatusRejected))
	assert.False(t, DecisionAllowed(StageA, StatusApproved))
	assert.False(t, DecisionAllowed(StageA, StatusPendingA))

	assert.True(t, DecisionAllowed(StageB, StatusApproved))
	assert.True(t, DecisionAllowed(StageB, StatusRejected))
	assert.False(t, DecisionAllowed(StageB, StatusPendingB))
}

func TestParseStatus(t *testing.T) {
	got, ok := ParseStatus(" Pending_B ")
	assert.True(t, ok)
	assert.Equal(t, StatusPendingB, got)

	_, ok = ParseStatus("published")
	assert.False(t, ok)

	_, ok = ParseStatus("")
	assert.False(t, ok)
}
