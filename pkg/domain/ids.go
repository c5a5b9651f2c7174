package domain

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	dErrors "roundwise/pkg/domain-errors"
)

// Typed identifiers keep round, item and category ids from being mixed up at
// call sites even though they share the same underlying representation.
type (
	RoundID    int64
	ItemID     int64
	CategoryID int64
	CapaID     uuid.UUID
)

// EvaluatorID identifies the person walking a round. It is opaque to this
// service; the identity provider owns its format.
type EvaluatorID string

const maxEvaluatorIDLength = 128

// ParseRoundID parses a round id from external input (path parameters).
func ParseRoundID(s string) (RoundID, error) {
	v, err := parsePositiveInt(s, "round_id")
	return RoundID(v), err
}

// ParseItemID parses an evaluation item id from external input.
func ParseItemID(s string) (ItemID, error) {
	v, err := parsePositiveInt(s, "item_id")
	return ItemID(v), err
}

// ParseEvaluatorID validates an evaluator identifier from external input.
//
// Errors: returns CodeInvalidInput when empty, oversized or containing control
// characters.
func ParseEvaluatorID(s string) (EvaluatorID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "evaluator_id cannot be empty")
	}
	if len(s) > maxEvaluatorIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "evaluator_id is too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) || r == '\u200B' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "evaluator_id contains invalid characters")
		}
	}
	return EvaluatorID(s), nil
}

// ParseCapaID parses a committed CAPA identifier.
func ParseCapaID(s string) (CapaID, error) {
	if s == "" {
		return CapaID{}, dErrors.New(dErrors.CodeInvalidInput, "capa_id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return CapaID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid capa_id")
	}
	if parsed == uuid.Nil {
		return CapaID{}, dErrors.New(dErrors.CodeInvalidInput, "capa_id cannot be nil")
	}
	return CapaID(parsed), nil
}

// NewCapaID returns a fresh random CAPA id.
func NewCapaID() CapaID {
	return CapaID(uuid.New())
}

func parsePositiveInt(s, field string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+field)
	}
	if v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, field+" must be positive")
	}
	return v, nil
}

func (id RoundID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id ItemID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id CategoryID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id EvaluatorID) String() string {
	return string(id)
}

func (id CapaID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id is the zero UUID.
func (id CapaID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText renders the id in canonical UUID form for JSON payloads.
func (id CapaID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *CapaID) UnmarshalText(data []byte) error {
	parsed, err := ParseCapaID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
