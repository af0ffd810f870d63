// Package handler provides the HTTP API of the gateway console lists.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/stevemurr/gwconsole/records"
	"github.com/stevemurr/gwconsole/schema"
)

// Handler holds the hosted lists and registers routes.
type Handler struct {
	lists    map[string]*records.List
	names    []string
	mux      *http.ServeMux
	root     http.Handler
	log      zerolog.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.log = logger }
}

// WithGatherer sets the registry served on /metrics. It defaults to the
// Prometheus default gatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// New creates a Handler serving lists and wires up all routes.
func New(lists []*records.List, opts ...Option) *Handler {
	h := &Handler{
		lists:    make(map[string]*records.List, len(lists)),
		mux:      http.NewServeMux(),
		log:      zerolog.Nop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(h)
	}
	for _, l := range lists {
		h.lists[l.Name()] = l
		h.names = append(h.names, l.Name())
	}
	sort.Strings(h.names)
	h.routes()
	h.root = requestID(accessLog(h.log, h.mux))
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health / status
	h.mux.HandleFunc("GET /", h.index)
	h.mux.HandleFunc("GET /health", h.health)
	h.mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	// --- Lists ---
	h.mux.HandleFunc("GET /lists", h.listLists)
	h.mux.HandleFunc("GET /lists/{list}", h.withList(h.getView))
	h.mux.HandleFunc("GET /lists/{list}/schema", h.withList(h.getSchema))
	h.mux.HandleFunc("POST /lists/{list}/records", h.withList(h.appendRecord))
	h.mux.HandleFunc("PUT /lists/{list}/records/{position}", h.withList(h.replaceRecord))
	h.mux.HandleFunc("POST /lists/{list}/selection/{position}", h.withList(h.toggle))
	h.mux.HandleFunc("POST /lists/{list}/bulk/{command}", h.withList(h.dispatch))
	h.mux.HandleFunc("POST /lists/{list}/flush", h.withList(h.flush))

	// --- Editor session ---
	h.mux.HandleFunc("POST /lists/{list}/editor", h.withList(h.openEditor))
	h.mux.HandleFunc("PATCH /lists/{list}/editor", h.withList(h.setFields))
	h.mux.HandleFunc("POST /lists/{list}/editor/save", h.withList(h.saveEditor))
	h.mux.HandleFunc("DELETE /lists/{list}/editor", h.withList(h.cancelEditor))
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeListError maps errors from the records package onto HTTP statuses.
func (h *Handler) writeListError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *records.ValidationError
	var perr *records.PersistenceError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": "validation failed",
			"fields": verr.Fields,
		})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"detail":    perr.Error(),
			"retryable": true,
		})
	case errors.Is(err, records.ErrPositionOutOfRange):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, records.ErrNoEditor):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, records.ErrUnknownField), errors.Is(err, records.ErrUnknownCommand),
		errors.Is(err, records.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type listHandlerFunc func(w http.ResponseWriter, r *http.Request, l *records.List)

func (h *Handler) withList(fn listHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("list")
		l, ok := h.lists[name]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown list %q", name))
			return
		}
		fn(w, r, l)
	}
}

func pathPosition(w http.ResponseWriter, r *http.Request) (int, bool) {
	pos, err := strconv.Atoi(r.PathValue("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position: "+r.PathValue("position"))
		return 0, false
	}
	return pos, true
}

// readRecord decodes a JSON object whose values are all scalars.
func readRecord(w http.ResponseWriter, r *http.Request) (records.Record, bool) {
	var rec records.Record
	if err := readJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}
	if rec == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: expected an object")
		return nil, false
	}
	for k, v := range rec {
		switch v.(type) {
		case nil, string, float64, bool:
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("field %q must be a string, number or boolean", k))
			return nil, false
		}
	}
	return rec, true
}

// ---------- status endpoints ----------

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	// Only match exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Gateway Console",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------- lists ----------

type listSummary struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Records int    `json:"records"`
}

func (h *Handler) listLists(w http.ResponseWriter, r *http.Request) {
	out := make([]listSummary, 0, len(h.names))
	for _, name := range h.names {
		l := h.lists[name]
		out = append(out, listSummary{Name: name, Title: l.Schema().Title, Records: l.Len()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getView(w http.ResponseWriter, r *http.Request, l *records.List) {
	writeJSON(w, http.StatusOK, l.View())
}

// schemaResponse is a list's schema plus the bulk commands it accepts.
type schemaResponse struct {
	*schema.Schema
	Commands []records.Command `json:"commands"`
}

func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request, l *records.List) {
	writeJSON(w, http.StatusOK, schemaResponse{Schema: l.Schema(), Commands: records.Commands()})
}

func (h *Handler) appendRecord(w http.ResponseWriter, r *http.Request, l *records.List) {
	rec, ok := readRecord(w, r)
	if !ok {
		return
	}
	pos, err := l.Append(r.Context(), rec)
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"position": pos, "index": pos + 1})
}

func (h *Handler) replaceRecord(w http.ResponseWriter, r *http.Request, l *records.List) {
	pos, ok := pathPosition(w, r)
	if !ok {
		return
	}
	rec, ok := readRecord(w, r)
	if !ok {
		return
	}
	if err := l.Replace(r.Context(), pos, rec); err != nil {
		h.writeListError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"position": pos, "index": pos + 1})
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, l *records.List) {
	pos, ok := pathPosition(w, r)
	if !ok {
		return
	}
	if err := l.Toggle(pos); err != nil {
		h.writeListError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"selected": l.Selected()})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, l *records.List) {
	cmd, err := records.ParseCommand(r.PathValue("command"))
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	if err := l.Dispatch(r.Context(), cmd); err != nil {
		h.writeListError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l.View())
}

func (h *Handler) flush(w http.ResponseWriter, r *http.Request, l *records.List) {
	if err := l.Flush(r.Context()); err != nil {
		h.writeListError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l.View())
}

// ---------- editor session ----------

func (h *Handler) openEditor(w http.ResponseWriter, r *http.Request, l *records.List) {
	var req struct {
		Position *int `json:"position"`
	}
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	target := records.NewRecord
	if req.Position != nil {
		target = *req.Position
	}
	if err := l.OpenEditor(target); err != nil {
		h.writeListError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l.View().Editor)
}

func (h *Handler) setFields(w http.ResponseWriter, r *http.Request, l *records.List) {
	fields, ok := readRecord(w, r)
	if !ok {
		return
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, known := l.Schema().Field(name); !known {
			h.writeListError(w, r, fmt.Errorf("%w: %q", records.ErrUnknownField, name))
			return
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := l.SetField(name, fields[name]); err != nil {
			h.writeListError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, l.View().Editor)
}

func (h *Handler) saveEditor(w http.ResponseWriter, r *http.Request, l *records.List) {
	pos, err := l.Save(r.Context())
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"position": pos, "index": pos + 1})
}

func (h *Handler) cancelEditor(w http.ResponseWriter, r *http.Request, l *records.List) {
	if err := l.CancelEditor(); err != nil {
		h.writeListError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
