package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/recents/internal/checksum"
	"github.com/starford/recents/internal/recentservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *recentservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recentservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListRecents handles GET /api/recents.
//
//	@Summary		Full recent-items snapshot
//	@Tags			recents
//	@Produce		json
//	@Param			If-None-Match	header		string	false	"ETag from a previous response"
//	@Success		200				{object}	RecentsResponse
//	@Success		304
//	@Security		BearerAuth
//	@Router			/recents [get]
func (h *Handler) ListRecents(w http.ResponseWriter, r *http.Request) {
	snap, fp := h.svc.Recents()
	body, err := json.Marshal(RecentsResponse{
		Items:       snap,
		Count:       len(snap),
		Fingerprint: fp,
	})
	if err != nil {
		slog.Error("api: json encode failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	etag := `"` + checksum.Sum(body) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Search handles POST /api/search.
//
//	@Summary		Start a search; any earlier search token becomes stale
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	false	"Query; blank lists everything"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [post]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	tok := h.svc.Search(req.Query)
	writeJSON(w, http.StatusOK, SearchResponse{Token: tok, Query: req.Query})
}

// NextPage handles GET /api/search/{token}/next.
//
//	@Summary		Next page of a search; a stale token yields an empty page
//	@Tags			search
//	@Produce		json
//	@Param			token	path		string	true	"Search token"
//	@Success		200		{object}	PageResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/{token}/next [get]
func (h *Handler) NextPage(w http.ResponseWriter, r *http.Request) {
	tok, err := uuid.Parse(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token")
		return
	}
	page, err := h.svc.Next(r.Context(), tok)
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away or the request deadline passed.
			return
		}
		slog.Error("next page failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Refresh handles POST /api/refresh.
//
//	@Summary		Schedule a debounced rescan of the pointer directory
//	@Tags			recents
//	@Produce		json
//	@Success		202	{object}	statusBody
//	@Security		BearerAuth
//	@Router			/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, _ *http.Request) {
	h.svc.Refresh()
	writeJSON(w, http.StatusAccepted, statusBody{Status: "scheduled"})
}

// Status handles GET /api/status.
//
//	@Summary		Cache and query status
//	@Tags			recents
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusBody{Status: "ok"})
}

// Ready handles GET /health/ready. The optional timeout query parameter
// (e.g. "2s") waits for the initial load before answering.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	var timeout time.Duration
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid timeout")
			return
		}
		timeout = d
	}
	if !h.svc.WaitReady(r.Context(), timeout) {
		writeJSON(w, http.StatusServiceUnavailable, statusBody{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: "ok"})
}
