package models

import (
	"strings"

	dErrors "roundwise/pkg/domain-errors"
)

// Status is an item's compliance level on the inspection scale.
//
// Invariants:
//   - Scores are non-increasing in scale order: applied > high_partial > partial > low_partial > not_applied
//   - StatusNotApplicable is a terminal answer with no score; it counts as evaluated
//   - StatusUnset is the initial state of every record; it has no score and is not evaluated
type Status string

const (
	StatusUnset         Status = ""
	StatusApplied       Status = "applied"
	StatusHighPartial   Status = "high_partial"
	StatusPartial       Status = "partial"
	StatusLowPartial    Status = "low_partial"
	StatusNotApplied    Status = "not_applied"
	StatusNotApplicable Status = "not_applicable"
)

// legacyNotApplicable is the short form older clients persist for not_applicable.
const legacyNotApplicable = "na"

// Scale lists the answerable statuses in scale order.
var Scale = []Status{
	StatusApplied,
	StatusHighPartial,
	StatusPartial,
	StatusLowPartial,
	StatusNotApplied,
	StatusNotApplicable,
}

var scores = map[Status]int{
	StatusApplied:     100,
	StatusHighPartial: 75,
	StatusPartial:     50,
	StatusLowPartial:  25,
	StatusNotApplied:  0,
}

var labels = map[Status]string{
	StatusUnset:         "Not evaluated",
	StatusApplied:       "Applied",
	StatusHighPartial:   "Mostly applied",
	StatusPartial:       "Partially applied",
	StatusLowPartial:    "Barely applied",
	StatusNotApplied:    "Not applied",
	StatusNotApplicable: "Not applicable",
}

// ParseStatus parses a wire value. The empty string is StatusUnset and "na"
// is accepted for StatusNotApplicable.
//
// Errors: returns CodeValidation for values outside the scale.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == legacyNotApplicable {
		return StatusNotApplicable, nil
	}
	st := Status(v)
	if st == StatusUnset || st.IsValid() {
		return st, nil
	}
	return StatusUnset, dErrors.New(dErrors.CodeValidation, "invalid status: "+s)
}

// IsValid reports whether s is one of the answerable statuses.
func (s Status) IsValid() bool {
	_, ok := labels[s]
	return ok && s != StatusUnset
}

// Score returns the numeric score and whether the status has one.
func (s Status) Score() (int, bool) {
	v, ok := scores[s]
	return v, ok
}

// ScoreOf is the free-function form of Status.Score.
func ScoreOf(s Status) (int, bool) {
	return s.Score()
}

// ScorePtr returns the score as a pointer, nil when the status has none.
func (s Status) ScorePtr() *int {
	v, ok := scores[s]
	if !ok {
		return nil
	}
	return &v
}

// IsEvaluated is false only for StatusUnset.
func (s Status) IsEvaluated() bool {
	return s != StatusUnset
}

// IsNonCompliant reports whether the status scores at or below threshold.
// Statuses without a score are never non-compliant.
func (s Status) IsNonCompliant(threshold Threshold) bool {
	v, ok := scores[s]
	return ok && v <= int(threshold)
}

// Label is the human-readable name used in CAPA text.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) String() string {
	return string(s)
}

// StatusFromScore maps a persisted score back to a status. Anything outside
// the scale, including a missing score, becomes StatusUnset.
func StatusFromScore(score *int) Status {
	if score == nil {
		return StatusUnset
	}
	for st, v := range scores {
		if v == *score {
			return st
		}
	}
	return StatusUnset
}

// Threshold is the score at or below which an evaluated item is non-compliant.
type Threshold int

// DefaultThreshold is used by callers that do not configure one.
const DefaultThreshold Threshold = 50

// ParseThreshold validates a threshold from configuration or request input.
func ParseThreshold(v int) (Threshold, error) {
	if v < 0 || v > 100 {
		return 0, dErrors.New(dErrors.CodeValidation, "threshold must be between 0 and 100")
	}
	return Threshold(v), nil
}
