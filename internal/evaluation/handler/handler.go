// Package handler exposes evaluation sessions over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/service"
	"roundwise/internal/platform/middleware"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
	"roundwise/pkg/platform/httputil"
	"roundwise/pkg/requestcontext"
)

// Service is the evaluation surface the handler drives.
type Service interface {
	Open(ctx context.Context, roundID id.RoundID) (service.OpenResult, error)
	Get(ctx context.Context, roundID id.RoundID) (service.View, error)
	Close(ctx context.Context, roundID id.RoundID) error
	SetStatus(ctx context.Context, roundID id.RoundID, itemID id.ItemID, status models.Status) (service.View, error)
	SetComment(ctx context.Context, roundID id.RoundID, itemID id.ItemID, comment string) (service.View, error)
	SetNotes(ctx context.Context, roundID id.RoundID, notes string) (service.View, error)
	SaveNow(ctx context.Context, roundID id.RoundID) (models.SaveResult, error)
	Finalize(ctx context.Context, roundID id.RoundID, threshold *int) (service.FinalizeResult, error)
	PreviewCapa(ctx context.Context, roundID id.RoundID, threshold *int) (service.Preview, error)
	CommitCapa(ctx context.Context, roundID id.RoundID, drafts []capamodels.Draft) (service.CommitResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the /v1 round routes. Every route requires X-Evaluator-ID.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/rounds/{roundID}", func(r chi.Router) {
		r.Use(middleware.RequireEvaluator(h.logger))

		r.Post("/session", h.handleOpen)
		r.Get("/session", h.handleGet)
		r.Delete("/session", h.handleClose)
		r.Put("/items/{itemID}/status", h.handleSetStatus)
		r.Put("/items/{itemID}/comment", h.handleSetComment)
		r.Put("/notes", h.handleSetNotes)
		r.Post("/draft", h.handleSaveNow)
		r.Post("/finalize", h.handleFinalize)
		r.Get("/capa-drafts", h.handlePreviewCapa)
		r.Post("/capa-drafts/commit", h.handleCommitCapa)
	})
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}
	res, err := h.service.Open(r.Context(), roundID)
	if err != nil {
		h.fail(w, r, "open session failed", err)
		return
	}
	status := http.StatusCreated
	if res.Resumed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, res)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), roundID)
	if err != nil {
		h.fail(w, r, "get session failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}
	if err := h.service.Close(r.Context(), roundID); err != nil {
		h.fail(w, r, "close session failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	roundID, itemID, ok := h.roundAndItem(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid status request", err)
		return
	}
	status, err := req.parse()
	if err != nil {
		h.fail(w, r, "invalid status request", err)
		return
	}
	view, err := h.service.SetStatus(r.Context(), roundID, itemID, status)
	if err != nil {
		h.fail(w, r, "set status failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSetComment(w http.ResponseWriter, r *http.Request) {
	roundID, itemID, ok := h.roundAndItem(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid comment request", err)
		return
	}
	comment, err := req.parse()
	if err != nil {
		h.fail(w, r, "invalid comment request", err)
		return
	}
	view, err := h.service.SetComment(r.Context(), roundID, itemID, comment)
	if err != nil {
		h.fail(w, r, "set comment failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSetNotes(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}
	var req notesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid notes request", err)
		return
	}
	notes, err := req.parse()
	if err != nil {
		h.fail(w, r, "invalid notes request", err)
		return
	}
	view, err := h.service.SetNotes(r.Context(), roundID, notes)
	if err != nil {
		h.fail(w, r, "set notes failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSaveNow(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}
	res, err := h.service.SaveNow(r.Context(), roundID)
	if err != nil {
		h.fail(w, r, "save draft failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}
	// An empty body, chunked or not, finalizes with the default threshold.
	var req finalizeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, "invalid finalize request", err)
		return
	}
	res, err := h.service.Finalize(r.Context(), roundID, req.Threshold)
	if err != nil {
		h.fail(w, r, "finalize failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handlePreviewCapa(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}
	threshold, err := thresholdQuery(r)
	if err != nil {
		h.fail(w, r, "invalid threshold", err)
		return
	}
	preview, err := h.service.PreviewCapa(r.Context(), roundID, threshold)
	if err != nil {
		h.fail(w, r, "capa preview failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, preview)
}

func (h *Handler) handleCommitCapa(w http.ResponseWriter, r *http.Request) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return
	}
	var req commitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid commit request", err)
		return
	}
	res, err := h.service.CommitCapa(r.Context(), roundID, req.Drafts)
	if err != nil {
		h.fail(w, r, "capa commit failed", err)
		return
	}
	status := http.StatusOK
	if res.Created > 0 {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, res)
}

func (h *Handler) roundID(w http.ResponseWriter, r *http.Request) (id.RoundID, bool) {
	roundID, err := roundIDParam(r)
	if err != nil {
		h.fail(w, r, "invalid round id", err)
		return 0, false
	}
	return roundID, true
}

func (h *Handler) roundAndItem(w http.ResponseWriter, r *http.Request) (id.RoundID, id.ItemID, bool) {
	roundID, ok := h.roundID(w, r)
	if !ok {
		return 0, 0, false
	}
	itemID, err := itemIDParam(r)
	if err != nil {
		h.fail(w, r, "invalid item id", err)
		return 0, 0, false
	}
	return roundID, itemID, true
}

// fail logs at warn for client errors and error for server errors, then
// writes the mapped response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"evaluator_id", requestcontext.EvaluatorID(ctx),
		"error", err.Error(),
	}
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
