package service

import (
	"time"

	"roundwise/internal/evaluation/catalog"
	"roundwise/internal/evaluation/finalize"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/session"
	id "roundwise/pkg/domain"
)

// ItemView is one round item joined with the evaluator's answer.
type ItemView struct {
	ItemID     id.ItemID        `json:"item_id"`
	CategoryID id.CategoryID    `json:"category_id,omitempty"`
	Title      string           `json:"title"`
	Code       string           `json:"code"`
	RiskLevel  models.RiskLevel `json:"risk_level"`
	IsRequired bool             `json:"is_required"`
	Status     models.Status    `json:"status"`
	Score      *int             `json:"score"`
	Comment    string           `json:"comment"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// View is the read model of a live session.
type View struct {
	RoundID              id.RoundID         `json:"round_id"`
	EvaluatorID          id.EvaluatorID     `json:"evaluator_id"`
	Department           string             `json:"department"`
	Status               models.RoundStatus `json:"status"`
	Items                []ItemView         `json:"items"`
	Notes                string             `json:"notes"`
	CompletionPercentage int                `json:"completion_percentage"`
	Evaluated            int                `json:"evaluated"`
	Total                int                `json:"total"`
	CanFinalize          bool               `json:"can_finalize"`
	Dirty                bool               `json:"dirty"`
	Saving               bool               `json:"saving"`
	LastSavedAt          *time.Time         `json:"last_saved_at"`
	LastSaveError        string             `json:"last_save_error,omitempty"`
}

// OpenResult reports how the prior draft was applied.
type OpenResult struct {
	View     View        `json:"session"`
	Resumed  bool        `json:"resumed"`
	Applied  int         `json:"hydrated"`
	Ignored  []id.ItemID `json:"ignored_item_ids,omitempty"`
	Degraded bool        `json:"degraded"`
}

func (ls *liveSession) view() View {
	sess := ls.session
	evaluated, total := sess.EvaluatedCount()

	records := sess.Records()
	items := make([]ItemView, 0, len(records))
	for _, rec := range records {
		items = append(items, itemView(ls.round.Catalog, rec))
	}

	v := View{
		RoundID:              sess.RoundID(),
		EvaluatorID:          sess.EvaluatorID(),
		Department:           ls.round.Meta.Department,
		Status:               sess.Status(),
		Items:                items,
		Notes:                sess.Notes(),
		CompletionPercentage: sess.CompletionPercentage(),
		Evaluated:            evaluated,
		Total:                total,
		CanFinalize:          finalize.CanFinalize(sess) && !sess.Status().IsTerminal(),
		Dirty:                sess.Dirty(),
		Saving:               ls.scheduler.InFlight(),
	}
	if at := sess.LastSavedAt(); !at.IsZero() {
		v.LastSavedAt = &at
	}
	if err := sess.LastSaveError(); err != nil {
		v.LastSaveError = err.Error()
	}
	return v
}

func itemView(cat *catalog.Catalog, rec session.Record) ItemView {
	v := ItemView{
		ItemID:    rec.ItemID,
		Status:    rec.Status,
		Score:     rec.Status.ScorePtr(),
		Comment:   rec.Comment,
		UpdatedAt: rec.UpdatedAt,
	}
	if item, ok := cat.Item(rec.ItemID); ok {
		v.CategoryID = item.CategoryID
		v.Title = item.Title
		v.Code = item.Code
		v.RiskLevel = item.RiskLevel
		v.IsRequired = item.IsRequired
	}
	return v
}
