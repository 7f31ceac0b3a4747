package filter

import "github.com/AngelCh415/leadboard/internal/models"

type Evaluation struct {
	Leads []models.Lead
	// InvalidDateRange is set when From is after To; the date bounds were
	// ignored and every other filter still applied.
	InvalidDateRange bool
}

// Evaluate keeps the leads that pass every dimension and the date range, in
// input order. leads is not modified.
func Evaluate(leads []models.Lead, st *State) Evaluation {
	active := make([]Dimension, 0, len(Dimensions))
	for _, d := range Dimensions {
		if !st.Selection(d).IsAll() {
			active = append(active, d)
		}
	}
	useDates := st.Dates.IsSet() && st.Dates.Valid()

	out := make([]models.Lead, 0, len(leads))
	for _, l := range leads {
		if keep(l, st, active, useDates) {
			out = append(out, l)
		}
	}
	return Evaluation{
		Leads:            out,
		InvalidDateRange: st.Dates.IsSet() && !st.Dates.Valid(),
	}
}

func keep(l models.Lead, st *State, active []Dimension, useDates bool) bool {
	for _, d := range active {
		if !st.Selection(d).Matches(d.Value(l)) {
			return false
		}
	}
	if useDates && (l.CreatedAt.IsZero() || !st.Dates.Contains(l.CreatedAt)) {
		return false
	}
	return true
}
