package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yonagi/kiroku/internal/apperr"
	"github.com/yonagi/kiroku/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	idx index.DiaryIndex
}

// NewHandler creates a new Handler.
func NewHandler(idx index.DiaryIndex) *Handler {
	return &Handler{idx: idx}
}

// EntryResponse is the payload for a diary entry.
type EntryResponse struct {
	ThreadID  string    `json:"thread_id"`
	PageID    string    `json:"page_id"`
	PageURL   string    `json:"page_url"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockRecordResponse is one synced block record.
type BlockRecordResponse struct {
	BlockID string `json:"block_id"`
	Kind    string `json:"kind"`
	Ordinal int    `json:"ordinal"`
}

// GetEntry handles GET /entries/{date}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(index.DateFormat, date); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
		return
	}

	entry, err := h.idx.EntryByDate(date)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("no entry for date"))
		return
	}
	if err != nil {
		slog.Error("entry lookup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, EntryResponse{
		ThreadID:  entry.ThreadID,
		PageID:    entry.PageID,
		PageURL:   entry.PageURL,
		Date:      entry.Date,
		CreatedAt: entry.CreatedAt,
	})
}

// GetMessageBlocks handles GET /messages/{id}/blocks.
func (h *Handler) GetMessageBlocks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	recs, err := h.idx.MessageBlocks(id)
	if err != nil {
		slog.Error("message blocks lookup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if len(recs) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("message not synced"))
		return
	}

	out := make([]BlockRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, BlockRecordResponse{
			BlockID: rec.BlockID,
			Kind:    string(rec.Kind),
			Ordinal: rec.Ordinal,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message_id": id,
		"blocks":     out,
	})
}
