package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "holly/pkg/domain-errors"
)

// TestParseLeadID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseLeadID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseLeadID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseLeadID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseLeadID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseLeadID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, LeadID(validUUID), id)
	})
}

func TestParseChannel(t *testing.T) {
	t.Run("accepts supported channels", func(t *testing.T) {
		for _, raw := range []string{"email", "sms", "call"} {
			ch, err := ParseChannel(raw)
			require.NoError(t, err)
			assert.True(t, ch.IsValid())
		}
	})

	t.Run("rejects empty channel", func(t *testing.T) {
		_, err := ParseChannel("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects unknown channel", func(t *testing.T) {
		_, err := ParseChannel("carrier-pigeon")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
