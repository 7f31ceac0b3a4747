package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/AngelCh415/leadboard/internal/filter"
	"github.com/AngelCh415/leadboard/internal/ingest"
	"github.com/AngelCh415/leadboard/internal/metrics"
	"github.com/AngelCh415/leadboard/internal/models"
	"github.com/AngelCh415/leadboard/internal/store"
	"github.com/AngelCh415/leadboard/internal/telemetry"
)

var (
	ErrFetchFailure = errors.New("fetching leads failed")
	ErrNotLoaded    = errors.New("leads not loaded")
)

type RecordSource interface {
	FetchAllLeads(ctx context.Context) ([]models.RawRecord, error)
}

// Sink receives every recomputed snapshot.
type Sink interface {
	Present(Snapshot)
}

type Snapshot struct {
	Views            metrics.Views  `json:"views"`
	FilteredCount    int            `json:"filtered_count"`
	Toggles          filter.Toggles `json:"toggles"`
	InvalidDateRange bool           `json:"invalid_date_range"`
	Table            models.Table   `json:"table"`
}

// Filters is the read-only filter state handed to presentation.
type Filters struct {
	Options    filter.Options                        `json:"options"`
	Selections map[filter.Dimension]filter.Selection `json:"selections"`
	Dates      *filter.DateRange                     `json:"dates,omitempty"`
	Toggles    filter.Toggles                        `json:"toggles"`
}

// Session owns the canonical lead set and the filter state for one user.
// Each mutation is followed by a full recompute before the next one starts.
type Session struct {
	mu    sync.Mutex
	src   RecordSource
	cache *store.MemoryStore
	state *filter.State
	log   *slog.Logger
	sink  Sink
	tel   *telemetry.Metrics
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.log = l } }
func WithSink(k Sink) Option { return func(s *Session) { s.sink = k } }
func WithTelemetry(m *telemetry.Metrics) Option { return func(s *Session) { s.tel = m } }

func New(src RecordSource, opts ...Option) *Session {
	s := &Session{
		src:   src,
		cache: store.NewMemoryStore(),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load fetches and normalizes the leads once. On failure nothing is cached
// and Load may be called again.
func (s *Session) Load(ctx context.Context) (ingest.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.Loaded() {
		return s.cache.Stats(), nil
	}

	raws, err := s.src.FetchAllLeads(ctx)
	if err != nil {
		s.log.Error("lead fetch failed", slog.String("err", err.Error()))
		return ingest.Stats{}, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}
	leads, stats := ingest.NormalizeAll(raws)
	s.cache.Put(leads, stats)
	s.state = filter.NewState(filter.OptionsFor(leads))
	s.tel.ObserveLoad(stats.Fetched, stats.Dropped)

	if stats.Fetched == 0 {
		s.log.Warn("no lead records found")
	}
	s.log.Info("leads loaded",
		slog.Int("fetched", stats.Fetched),
		slog.Int("retained", stats.Retained),
		slog.Int("dropped", stats.Dropped))
	return stats, nil
}

func (s *Session) Loaded() bool { return s.cache.Loaded() }

// Select applies a multi-select edit to one dimension. A rejected edit leaves
// the previous selection in place and publishes nothing.
func (s *Session) Select(d filter.Dimension, edit []string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return Snapshot{}, ErrNotLoaded
	}
	if _, err := s.state.Select(d, edit); err != nil {
		if errors.Is(err, filter.ErrInvalidSelection) {
			s.tel.RejectedSelection(string(d))
		}
		s.log.Warn("filter edit rejected", slog.String("dimension", string(d)), slog.String("err", err.Error()))
		return Snapshot{}, err
	}
	return s.recompute(), nil
}

func (s *Session) SetDateRange(from, to time.Time) (Snapshot, error) {
	return s.mutate(func(st *filter.State) { st.Dates = filter.DateRange{From: from, To: to} })
}

func (s *Session) ClearDateRange() (Snapshot, error) {
	return s.mutate(func(st *filter.State) { st.Dates = filter.DateRange{} })
}

func (s *Session) SetToggles(t filter.Toggles) (Snapshot, error) {
	return s.mutate(func(st *filter.State) { st.Toggles = t })
}

func (s *Session) Recompute() (Snapshot, error) {
	return s.mutate(func(*filter.State) {})
}

// Options returns the eligible values per dimension.
func (s *Session) Options() (filter.Options, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNotLoaded
	}
	return s.state.Options(), nil
}

func (s *Session) Filters() (Filters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return Filters{}, ErrNotLoaded
	}
	f := Filters{
		Options:    s.state.Options(),
		Selections: s.state.Selections(),
		Toggles:    s.state.Toggles,
	}
	if s.state.Dates.IsSet() {
		d := s.state.Dates
		f.Dates = &d
	}
	return f, nil
}

func (s *Session) mutate(fn func(*filter.State)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return Snapshot{}, ErrNotLoaded
	}
	fn(s.state)
	return s.recompute(), nil
}

// recompute must run with mu held.
func (s *Session) recompute() Snapshot {
	start := time.Now()
	ev := filter.Evaluate(s.cache.Leads(), s.state)
	snap := Snapshot{
		Views:            metrics.Compute(ev.Leads, s.state.Toggles),
		FilteredCount:    len(ev.Leads),
		Toggles:          s.state.Toggles,
		InvalidDateRange: ev.InvalidDateRange,
		Table:            models.NewTable(ev.Leads),
	}
	s.tel.ObserveRecompute(snap.FilteredCount, snap.InvalidDateRange, time.Since(start))
	if ev.InvalidDateRange {
		s.log.Warn("date range ignored: from is after to",
			slog.Time("from", s.state.Dates.From), slog.Time("to", s.state.Dates.To))
	}
	if s.sink != nil {
		s.sink.Present(snap)
	}
	return snap
}
