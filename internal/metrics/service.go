package metrics

import (
	"sort"
	"time"

	"github.com/AngelCh415/leadboard/internal/filter"
	"github.com/AngelCh415/leadboard/internal/geo"
	"github.com/AngelCh415/leadboard/internal/models"
)

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type MonthStatus struct {
	Month      string `json:"month"`
	Status     string `json:"status"`
	Count      int    `json:"count"`
	MonthTotal int    `json:"month_total"`
}

type SourceCount struct {
	Source models.LeadSource `json:"source"`
	Count  int               `json:"count"`
}

type StateRow struct {
	Code    string        `json:"code"`
	Name    string        `json:"name"`
	Lat     float64       `json:"lat"`
	Lon     float64       `json:"lon"`
	Sources []SourceCount `json:"sources"`
	Total   int           `json:"total"`
}

// Count returns the pivot cell for src, 0 for sources outside the pivot.
func (r StateRow) Count(src models.LeadSource) int {
	for _, c := range r.Sources {
		if c.Source == src {
			return c.Count
		}
	}
	return 0
}

// Views holds the derived tables. A view switched off by its toggle is nil;
// an enabled view over no leads is empty, not nil.
type Views struct {
	StatusCounts    []Count       `json:"status_counts"`
	SourceCounts    []Count       `json:"source_counts"`
	MonthlyByStatus []MonthStatus `json:"monthly_by_status"`
	States          []StateRow    `json:"states"`
}

func Compute(leads []models.Lead, t filter.Toggles) Views {
	var v Views
	if t.LeadAnalysis {
		v.StatusCounts = StatusCounts(leads)
		v.SourceCounts = SourceCounts(leads)
	}
	if t.MonthlyDistribution {
		v.MonthlyByStatus = MonthlyByStatus(leads)
	}
	if t.StateMap {
		v.States = StateBreakdown(leads)
	}
	return v
}

func StatusCounts(leads []models.Lead) []Count {
	return countBy(leads, func(l models.Lead) string { return l.Status })
}

func SourceCounts(leads []models.Lead) []Count {
	return countBy(leads, func(l models.Lead) string { return string(l.LeadSource) })
}

// countBy orders by count descending, ties by key.
func countBy(leads []models.Lead, key func(models.Lead) string) []Count {
	counts := map[string]int{}
	for _, l := range leads {
		counts[key(l)]++
	}
	out := make([]Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// MonthlyByStatus groups by calendar month name across years, January first.
// Leads without a creation date are left out.
func MonthlyByStatus(leads []models.Lead) []MonthStatus {
	type key struct {
		month  time.Month
		status string
	}
	counts := map[key]int{}
	totals := map[time.Month]int{}
	for _, l := range leads {
		if l.CreatedAt.IsZero() {
			continue
		}
		m := l.CreatedAt.Month()
		counts[key{m, l.Status}]++
		totals[m]++
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].status < keys[j].status
	})

	out := make([]MonthStatus, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthStatus{
			Month:      k.month.String(),
			Status:     k.status,
			Count:      counts[k],
			MonthTotal: totals[k.month],
		})
	}
	return out
}

// StateBreakdown totals leads per state and pivots the displayed sources into
// zero-filled columns. Sources outside models.DisplayedSources count toward
// Total only.
func StateBreakdown(leads []models.Lead) []StateRow {
	totals := map[string]int{}
	pivot := map[string]map[models.LeadSource]int{}
	for _, l := range leads {
		totals[l.StateCode]++
		if !displayed(l.LeadSource) {
			continue
		}
		if pivot[l.StateCode] == nil {
			pivot[l.StateCode] = map[models.LeadSource]int{}
		}
		pivot[l.StateCode][l.LeadSource]++
	}

	out := make([]StateRow, 0, len(totals))
	for code, total := range totals {
		st, ok := geo.ByCode(code)
		if !ok {
			continue
		}
		row := StateRow{
			Code:    code,
			Name:    st.Name,
			Lat:     st.Lat,
			Lon:     st.Lon,
			Sources: make([]SourceCount, 0, len(models.DisplayedSources)),
			Total:   total,
		}
		for _, src := range models.DisplayedSources {
			row.Sources = append(row.Sources, SourceCount{Source: src, Count: pivot[code][src]})
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func displayed(src models.LeadSource) bool {
	for _, s := range models.DisplayedSources {
		if s == src {
			return true
		}
	}
	return false
}
