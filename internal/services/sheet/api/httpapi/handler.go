// Package httpapi exposes character sessions over JSON HTTP.
//
// Handlers are thin: every mutation goes through the session funnel and the
// response is the re-derived view. Domain errors render with their HTTP
// status and a message localized from Accept-Language.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/duality-sheet/internal/platform/errors"
	"github.com/louisbranch/duality-sheet/internal/platform/i18n/catalog"
	"github.com/louisbranch/duality-sheet/internal/platform/telemetry/metrics"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/derive"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/session"
)

const maxBodyBytes = 1 << 20

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records request durations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithMetricsHandler serves mh at /metrics instead of the default
// Prometheus registry handler.
func WithMetricsHandler(mh http.Handler) Option {
	return func(h *Handler) { h.metricsHandler = mh }
}

// Handler serves the sheet API.
type Handler struct {
	sessions       *session.Manager
	compendium     *compendium.Store
	locales        *catalog.Bundle
	logger         *zap.Logger
	metrics        *metrics.Metrics
	metricsHandler http.Handler
}

// New returns a Handler over sessions and the compendium store.
func New(sessions *session.Manager, comp *compendium.Store, opts ...Option) *Handler {
	h := &Handler{
		sessions:       sessions,
		compendium:     comp,
		locales:        catalog.Default(),
		logger:         zap.NewNop(),
		metricsHandler: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /characters", h.handleList)
	mux.HandleFunc("POST /characters", h.handleCreate)
	mux.HandleFunc("GET /characters/{characterID}", h.handleGet)
	mux.HandleFunc("PATCH /characters/{characterID}", h.handlePatch)
	mux.HandleFunc("DELETE /characters/{characterID}", h.handleDelete)
	mux.HandleFunc("GET /characters/{characterID}/sheet", h.handleSheet)
	mux.HandleFunc("POST /characters/{characterID}/equip", h.handleEquip)
	mux.HandleFunc("POST /characters/{characterID}/save", h.handleSave)
	mux.HandleFunc("GET /compendium", h.handleCompendium)
	mux.Handle("GET /metrics", h.metricsHandler)
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return h.instrument(mux)
}

type characterSummary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.sessions.List(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]characterSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, characterSummary(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"characters": out})
}

type createRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.sessions.Create(r.Context(), req.UserID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/characters/"+s.ID())
	writeJSON(w, http.StatusCreated, s.View())
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Open(r.Context(), strings.TrimSpace(r.PathValue("characterID")))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *Handler) handleSheet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View().Sheet)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if err := decodeBody(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := s.ApplyPatch(r.Context(), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type equipRequest struct {
	Slot       derive.Slot `json:"slot"`
	InstanceID string      `json:"instance_id"`
}

func (h *Handler) handleEquip(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	var req equipRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := s.Equip(r.Context(), req.Slot, strings.TrimSpace(req.InstanceID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type saveResponse struct {
	Version int64     `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := s.Flush(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	status := s.Autosave().Status()
	writeJSON(w, http.StatusOK, saveResponse{Version: status.Version, SavedAt: status.SavedAt})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), strings.TrimSpace(r.PathValue("characterID"))); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tableStatus struct {
	Kind    compendium.Kind `json:"kind"`
	Loaded  bool            `json:"loaded"`
	Entries int             `json:"entries"`
}

func (h *Handler) handleCompendium(w http.ResponseWriter, _ *http.Request) {
	snap := h.compendium.Snapshot()
	out := make([]tableStatus, 0, len(compendium.Kinds))
	for _, kind := range compendium.Kinds {
		out = append(out, tableStatus{Kind: kind, Loaded: snap.Loaded(kind), Entries: snap.Count(kind)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": out})
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	locale := h.locales.Match(r.Header.Get("Accept-Language"))
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    string(code),
		Message: apperrors.LocalizedMessage(err, locale),
	}})
}

func decodeBody(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		return apperrors.Wrap(apperrors.CodeCharacterInvalidPatch, "decode request body", err)
	}
	if dec.More() {
		return apperrors.Wrap(apperrors.CodeCharacterInvalidPatch, "decode request body", fmt.Errorf("unexpected trailing data"))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
