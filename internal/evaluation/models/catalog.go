package models

import (
	"strings"

	id "roundwise/pkg/domain"
)

// RiskLevel is the catalog's risk classification of an inspection item.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskMajor    RiskLevel = "MAJOR"
	RiskMinor    RiskLevel = "MINOR"
)

// NormalizeRiskLevel upper-cases and trims a catalog value. Unknown values
// are kept as-is so downstream rules treat them as "other".
func NormalizeRiskLevel(s string) RiskLevel {
	return RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
}

// EvaluationItem is owned by the catalog; the engine never mutates it.
type EvaluationItem struct {
	ID         id.ItemID     `json:"id"`
	CategoryID id.CategoryID `json:"category_id"`
	Title      string        `json:"title"`
	Code       string        `json:"code"`
	Weight     float64       `json:"weight"`
	IsRequired bool          `json:"is_required"`
	RiskLevel  RiskLevel     `json:"risk_level"`
}

// Category groups items. SortOrder drives catalog order.
type Category struct {
	ID        id.CategoryID `json:"id"`
	Name      string        `json:"name"`
	SortOrder int           `json:"sort_order"`
}

// RoundStatus is the lifecycle position of a round.
type RoundStatus string

const (
	RoundStatusDraft     RoundStatus = "draft"
	RoundStatusCompleted RoundStatus = "completed"
)

// IsTerminal reports whether no further transition is defined.
func (s RoundStatus) IsTerminal() bool {
	return s == RoundStatusCompleted
}

// RoundMeta is the scheduled round as described by the catalog collaborator.
type RoundMeta struct {
	ID                id.RoundID  `json:"id"`
	Department        string      `json:"department"`
	EvaluationItemIDs []id.ItemID `json:"evaluation_item_ids"`
	Status            RoundStatus `json:"status"`
}
