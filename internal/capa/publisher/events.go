package publisher

import (
	"time"

	"github.com/google/uuid"

	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
)

const (
	TypeRoundFinalized = "round.finalized"
	TypeCapaDrafted    = "capa.drafted"
)

// Header is shared by every event. ID lets consumers drop redeliveries.
type Header struct {
	ID         uuid.UUID `json:"event_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RoundFinalized struct {
	Header
	RoundID              id.RoundID     `json:"round_id"`
	Department           string         `json:"department"`
	FinalizedBy          id.EvaluatorID `json:"finalized_by"`
	CompletionPercentage int            `json:"completion_percentage"`
	ItemCount            int            `json:"item_count"`
	FinalizedAt          time.Time      `json:"finalized_at"`
}

type CapaDrafted struct {
	Header
	CapaID        id.CapaID        `json:"capa_id"`
	SourceRoundID id.RoundID       `json:"source_round_id"`
	SourceItemID  id.ItemID        `json:"source_item_id"`
	Title         string           `json:"title"`
	Department    string           `json:"department"`
	Severity      int              `json:"severity"`
	RiskLevel     models.RiskLevel `json:"risk_level"`
	TargetDate    time.Time        `json:"target_date"`
	CreatedBy     id.EvaluatorID   `json:"created_by"`
}
