package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "brandgov/pkg/domain-errors"
)

func TestParseAuditDecision(t *testing.T) {
	t.Run("clean payload", func(t *testing.T) {
		decision, err := ParseAuditDecision(`{"verdict":"check","explanation":"all rules respected","confidence":0.92}`)
		require.NoError(t, err)
		assert.Equal(t, VerdictCheck, decision.Verdict)
		assert.Equal(t, "all rules respected", decision.Explanation)
		assert.InDelta(t, 0.92, decision.Confidence, 1e-9)
	})

	t.Run("markdown fenced payload", func(t *testing.T) {
		decision, err := ParseAuditDecision("```json\n{\"verdict\":\"fail\",\"explanation\":\"logo cropped\",\"confidence\":0.8}\n```")
		require.NoError(t, err)
		assert.Equal(t, VerdictFail, decision.Verdict)
		assert.Equal(t, "logo cropped", decision.Explanation)
	})

	t.Run("object embedded in prose", func(t *testing.T) {
		decision, err := ParseAuditDecision(`Here is my assessment: {"verdict":"check","confidence":1}`)
		require.NoError(t, err)
		assert.Equal(t, VerdictCheck, decision.Verdict)
	})

	t.Run("unknown verdict fails closed", func(t *testing.T) {
		decision, err := ParseAuditDecision(`{"verdict":"maybe","confidence":0.9}`)
		require.NoError(t, err)
		assert.Equal(t, VerdictFail, decision.Verdict)
	})

	t.Run("missing fields get defaults", func(t *testing.T) {
		decision, err := ParseAuditDecision(`{}`)
		require.NoError(t, err)
		assert.Equal(t, VerdictFail, decision.Verdict)
		assert.Equal(t, "No explanation returned", decision.Explanation)
		assert.InDelta(t, 0.5, decision.Confidence, 1e-9)
	})

	t.Run("confidence is clamped to the unit interval", func(t *testing.T) {
		decision, err := ParseAuditDecision(`{"verdict":"check","confidence":7.5}`)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, decision.Confidence, 1e-9)

		decision, err = ParseAuditDecision(`{"verdict":"check","confidence":-2}`)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, decision.Confidence, 1e-9)
	})

	t.Run("numeric string confidence is accepted", func(t *testing.T) {
		decision, err := ParseAuditDecision(`{"verdict":"check","confidence":"0.7"}`)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, decision.Confidence, 1e-9)
	})

	t.Run("non-numeric confidence is a bad gateway", func(t *testing.T) {
		_, err := ParseAuditDecision(`{"verdict":"check","confidence":"very sure"}`)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadGateway))
	})

	t.Run("garbage is a bad gateway", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "no json here", "[1,2,3]"} {
			_, err := ParseAuditDecision(raw)
			require.Error(t, err, "input %q", raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadGateway), "input %q", raw)
		}
	})
}
