package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "roundwise/pkg/domain-errors"
)

// TestParseRoundID_Invariants validates the parsing invariant:
// "round and item ids are positive integers"
func TestParseRoundID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRoundID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non numeric", func(t *testing.T) {
		_, err := ParseRoundID("abc")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero and negatives", func(t *testing.T) {
		for _, in := range []string{"0", "-4"} {
			_, err := ParseRoundID(in)
			require.Error(t, err, in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})

	t.Run("accepts positive id", func(t *testing.T) {
		id, err := ParseRoundID("42")
		require.NoError(t, err)
		assert.Equal(t, RoundID(42), id)
		assert.Equal(t, "42", id.String())
	})
}

func TestParseItemID(t *testing.T) {
	id, err := ParseItemID("7")
	require.NoError(t, err)
	assert.Equal(t, ItemID(7), id)

	_, err = ParseItemID("7.5")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParseEvaluatorID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Empty string", "", true},
		{"Whitespace only", "   ", true},
		{"Null byte injection", "eval\x00uator", true},
		{"Unicode zero-width space", "eval\u200Buator", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Trimmed", "  inspector-7 ", false},
		{"Email-like", "qa.lead@example.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvaluatorID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseCapaID(t *testing.T) {
	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCapaID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("round trips generated id", func(t *testing.T) {
		id := NewCapaID()
		parsed, err := ParseCapaID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
		assert.False(t, parsed.IsNil())
	})
}

func TestCapaIDJSON(t *testing.T) {
	type payload struct {
		CapaID CapaID `json:"capa_id"`
	}

	t.Run("encodes canonical form and decodes back", func(t *testing.T) {
		raw := uuid.MustParse("6f1c2b9e-4d3a-4f6b-9a2e-1c7d8e9f0a1b")
		body, err := json.Marshal(payload{CapaID: CapaID(raw)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"capa_id":"6f1c2b9e-4d3a-4f6b-9a2e-1c7d8e9f0a1b"}`, string(body))

		var decoded payload
		require.NoError(t, json.Unmarshal(body, &decoded))
		assert.Equal(t, CapaID(raw), decoded.CapaID)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		var decoded payload
		err := json.Unmarshal([]byte(`{"capa_id":"not-a-uuid"}`), &decoded)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
