package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AngelCh415/leadboard/internal/filter"
	"github.com/AngelCh415/leadboard/internal/session"
	"github.com/AngelCh415/leadboard/internal/telemetry"
	"github.com/AngelCh415/leadboard/internal/utils"
)

const dateLayout = "2006-01-02"

// Latest is a session.Sink that keeps the most recent snapshot for readers.
type Latest struct {
	mu   sync.RWMutex
	snap *session.Snapshot
}

func (l *Latest) Present(s session.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = &s
}

func (l *Latest) Get() (session.Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.snap == nil {
		return session.Snapshot{}, false
	}
	return *l.snap, true
}

type handler struct {
	log    *slog.Logger
	sess   *session.Session
	latest *Latest
}

func NewRouter(log *slog.Logger, sess *session.Session, latest *Latest, tel *telemetry.Metrics, origins []string) http.Handler {
	h := &handler{log: log, sess: sess, latest: latest}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !sess.Loaded() {
			http.Error(w, "leads not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", tel.Handler())

	mux.Post("/session/load", h.load)
	mux.Route("/filters", func(r chi.Router) {
		r.Get("/", h.filters)
		r.Put("/dates", h.setDates)
		r.Delete("/dates", h.clearDates)
		r.Put("/{dimension}", h.selectValues)
	})
	mux.Put("/toggles", h.setToggles)
	mux.Get("/views", h.views)
	mux.Get("/records", h.records)

	return mux
}

func (h *handler) load(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sess.Load(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, stats)
}

func (h *handler) filters(w http.ResponseWriter, r *http.Request) {
	f, err := h.sess.Filters()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, f)
}

type selectReq struct {
	Values []string `json:"values"`
}

func (h *handler) selectValues(w http.ResponseWriter, r *http.Request) {
	dim, err := filter.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		writeErr(w, err)
		return
	}
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	snap, err := h.sess.Select(dim, req.Values)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, snap)
}

type datesReq struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *handler) setDates(w http.ResponseWriter, r *http.Request) {
	var req datesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		http.Error(w, "bad from date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		http.Error(w, "bad to date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	snap, err := h.sess.SetDateRange(from, to)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, snap)
}

func (h *handler) clearDates(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sess.ClearDateRange()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, snap)
}

// setToggles changes only the toggles named in the body.
func (h *handler) setToggles(w http.ResponseWriter, r *http.Request) {
	cur, err := h.sess.Filters()
	if err != nil {
		writeErr(w, err)
		return
	}
	t := cur.Toggles
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	snap, err := h.sess.SetToggles(t)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, snap)
}

func (h *handler) views(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest.Get()
	if !ok {
		var err error
		if snap, err = h.sess.Recompute(); err != nil {
			writeErr(w, err)
			return
		}
	}
	writeJSON(w, snap)
}

func (h *handler) records(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest.Get()
	if !ok {
		var err error
		if snap, err = h.sess.Recompute(); err != nil {
			writeErr(w, err)
			return
		}
	}
	writeJSON(w, snap.Table)
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotLoaded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, filter.ErrUnknownDimension):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, filter.ErrInvalidSelection):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
