package filter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/AngelCh415/leadboard/internal/models"
)

var (
	ErrInvalidSelection = errors.New("selection outside eligible values")
	ErrUnknownDimension = errors.New("unknown filter dimension")
)

type Dimension string

const (
	Year       Dimension = "year"
	Owner      Dimension = "owner"
	LeadSource Dimension = "lead_source"
	Status     Dimension = "status"
	Product    Dimension = "product"
)

var Dimensions = []Dimension{Year, Owner, LeadSource, Status, Product}

func ParseDimension(s string) (Dimension, error) {
	for _, d := range Dimensions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Value extracts the field a dimension filters on.
func (d Dimension) Value(l models.Lead) string {
	switch d {
	case Year:
		// undated leads have no year to offer or match
		if l.CreatedAt.IsZero() {
			return ""
		}
		return strconv.Itoa(l.CreatedAt.Year())
	case Owner:
		return l.OwnerName
	case LeadSource:
		return string(l.LeadSource)
	case Status:
		return l.Status
	case Product:
		return l.Product
	}
	return ""
}

// Options lists the eligible values of each dimension.
type Options map[Dimension][]string

func OptionsFor(leads []models.Lead) Options {
	sets := make(map[Dimension]map[string]struct{}, len(Dimensions))
	for _, d := range Dimensions {
		sets[d] = map[string]struct{}{}
	}
	for _, l := range leads {
		for _, d := range Dimensions {
			if v := d.Value(l); v != "" {
				sets[d][v] = struct{}{}
			}
		}
	}

	opts := make(Options, len(Dimensions))
	for d, set := range sets {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		switch d {
		case LeadSource:
			sortSources(vals)
		case Year:
			sort.Slice(vals, func(i, j int) bool {
				a, _ := strconv.Atoi(vals[i])
				b, _ := strconv.Atoi(vals[j])
				return a < b
			})
		default:
			sort.Strings(vals)
		}
		opts[d] = vals
	}
	return opts
}

func sortSources(vals []string) {
	rank := func(v string) int {
		for i, s := range models.SourceOrder {
			if string(s) == v {
				return i
			}
		}
		return len(models.SourceOrder)
	}
	sort.SliceStable(vals, func(i, j int) bool { return rank(vals[i]) < rank(vals[j]) })
}

func (o Options) contains(d Dimension, v string) bool {
	for _, x := range o[d] {
		if x == v {
			return true
		}
	}
	return false
}

// DateRange bounds CreatedAt by calendar day, both ends inclusive. The zero
// value means no date filter.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r DateRange) IsSet() bool { return !r.From.IsZero() || !r.To.IsZero() }

func (r DateRange) Valid() bool { return !day(r.From).After(day(r.To)) }

func (r DateRange) Contains(t time.Time) bool {
	d := day(t)
	return !d.Before(day(r.From)) && !d.After(day(r.To))
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Toggles choose which views get computed; they do not filter records.
type Toggles struct {
	LeadAnalysis        bool `json:"lead_analysis"`
	MonthlyDistribution bool `json:"monthly_distribution"`
	StateMap            bool `json:"state_map"`
}

func DefaultToggles() Toggles {
	return Toggles{LeadAnalysis: true, MonthlyDistribution: true, StateMap: true}
}

type State struct {
	options    Options
	selections map[Dimension]Selection
	Dates      DateRange
	Toggles    Toggles
}

// NewState starts every dimension at All.
func NewState(opts Options) *State {
	return &State{
		options:    opts,
		selections: make(map[Dimension]Selection, len(Dimensions)),
		Toggles:    DefaultToggles(),
	}
}

func (s *State) Options() Options { return s.options }

func (s *State) Selection(d Dimension) Selection { return s.selections[d] }

func (s *State) Selections() map[Dimension]Selection {
	out := make(map[Dimension]Selection, len(Dimensions))
	for _, d := range Dimensions {
		out[d] = s.selections[d]
	}
	return out
}

// Select applies a widget edit to one dimension. A result naming a value the
// dimension does not offer is rejected and the previous selection stays.
func (s *State) Select(d Dimension, edit []string) (Selection, error) {
	if _, err := ParseDimension(string(d)); err != nil {
		return Selection{}, err
	}
	prev := s.selections[d]
	next := Reconcile(prev, edit)
	for _, v := range next.values {
		if !s.options.contains(d, v) {
			return prev, fmt.Errorf("%w: %s=%q", ErrInvalidSelection, d, v)
		}
	}
	s.selections[d] = next
	return next, nil
}
