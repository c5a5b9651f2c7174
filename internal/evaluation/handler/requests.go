package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
)

const maxCommentLength = 4000

type statusRequest struct {
	Status *string `json:"status"`
}

func (r statusRequest) parse() (models.Status, error) {
	if r.Status == nil {
		return "", dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return models.ParseStatus(*r.Status)
}

type commentRequest struct {
	Comment *string `json:"comment"`
}

func (r commentRequest) parse() (string, error) {
	if r.Comment == nil {
		return "", dErrors.New(dErrors.CodeValidation, "comment is required")
	}
	if len(*r.Comment) > maxCommentLength {
		return "", dErrors.New(dErrors.CodeValidation, "comment is too long")
	}
	return *r.Comment, nil
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

func (r notesRequest) parse() (string, error) {
	if r.Notes == nil {
		return "", dErrors.New(dErrors.CodeValidation, "notes is required")
	}
	return *r.Notes, nil
}

type finalizeRequest struct {
	Threshold *int `json:"threshold"`
}

type commitRequest struct {
	Drafts []capamodels.Draft `json:"drafts"`
}

func roundIDParam(r *http.Request) (id.RoundID, error) {
	return id.ParseRoundID(chi.URLParam(r, "roundID"))
}

func itemIDParam(r *http.Request) (id.ItemID, error) {
	return id.ParseItemID(chi.URLParam(r, "itemID"))
}

// thresholdQuery reads ?threshold=; absent means "use the default".
func thresholdQuery(r *http.Request) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("threshold"))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "threshold must be an integer")
	}
	return &v, nil
}
