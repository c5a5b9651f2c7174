// Package models holds the corrective-action (CAPA) types derived from a
// round evaluation.
package models

import (
	"time"

	evalmodels "roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
)

// NonCompliantItem is an evaluated item at or below the compliance threshold,
// joined with its catalog details.
type NonCompliantItem struct {
	ItemID    id.ItemID            `json:"item_id"`
	Title     string               `json:"title"`
	Code      string               `json:"code"`
	Status    evalmodels.Status    `json:"status"`
	Comment   string               `json:"comment"`
	RiskLevel evalmodels.RiskLevel `json:"risk_level"`
}

// Draft is a proposed corrective action awaiting review. Comment is always
// present on the wire, empty when the evaluator left none.
type Draft struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Comment       string               `json:"comment"`
	Department    string               `json:"department"`
	Severity      int                  `json:"severity"`
	TargetDate    time.Time            `json:"target_date"`
	SourceItemID  id.ItemID            `json:"source_item_id"`
	SourceRoundID id.RoundID           `json:"source_round_id"`
	RiskLevel     evalmodels.RiskLevel `json:"risk_level"`
}

// Key identifies the source of a draft; at most one CAPA exists per key.
type Key struct {
	RoundID id.RoundID
	ItemID  id.ItemID
}

func (d Draft) Key() Key {
	return Key{RoundID: d.SourceRoundID, ItemID: d.SourceItemID}
}

// Committed is a persisted CAPA. Created is false when the commit replayed a
// draft that already had a record.
type Committed struct {
	Draft
	ID        id.CapaID      `json:"id"`
	CreatedBy id.EvaluatorID `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	Created   bool           `json:"created"`
}
