package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/leadboard/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func fixture() []models.Lead {
	return []models.Lead{
		{ID: "1", OwnerName: "Ann", Status: "New", Product: "Solar", LeadSource: models.SourceWebsite, StateCode: "CA", CreatedAt: date(2023, time.November, 3)},
		{ID: "2", OwnerName: "Bob", Status: "Working", Product: "Roof", LeadSource: models.SourceIndeed, StateCode: "TX", CreatedAt: date(2024, time.January, 15)},
		{ID: "3", OwnerName: "Ann", Status: "Closed", Product: "Solar", LeadSource: models.SourceOther, StateCode: "TX", CreatedAt: date(2024, time.February, 20)},
		{ID: "4", OwnerName: "Cy", Status: "New", Product: "", LeadSource: models.SourceGoogleLeadsWebsite, StateCode: "NY", CreatedAt: date(2024, time.March, 1)},
	}
}

func ids(leads []models.Lead) []string {
	out := make([]string, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}

func TestOptionsFor(t *testing.T) {
	opts := OptionsFor(fixture())

	assert.Equal(t, []string{"2023", "2024"}, opts[Year])
	assert.Equal(t, []string{"Ann", "Bob", "Cy"}, opts[Owner])
	assert.Equal(t, []string{"Closed", "New", "Working"}, opts[Status])
	assert.Equal(t, []string{"Roof", "Solar"}, opts[Product])
	assert.Equal(t, []string{"Google Leads - Website", "Website", "Indeed", "Other"}, opts[LeadSource])
}

func TestStateSelectRejectsIneligible(t *testing.T) {
	st := NewState(OptionsFor(fixture()))

	got, err := st.Select(Owner, []string{All, "Ann"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann"}, got.Values())

	_, err = st.Select(Owner, []string{"Ann", "Zed"})
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, []string{"Ann"}, st.Selection(Owner).Values(), "previous selection kept")

	_, err = st.Select(Dimension("region"), []string{"West"})
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestStateStartsAtAll(t *testing.T) {
	st := NewState(OptionsFor(fixture()))
	for _, d := range Dimensions {
		assert.True(t, st.Selection(d).IsAll(), d)
	}
	assert.Equal(t, DefaultToggles(), st.Toggles)
	assert.False(t, st.Dates.IsSet())
}

func TestEvaluateConjunction(t *testing.T) {
	leads := fixture()
	st := NewState(OptionsFor(leads))

	ev := Evaluate(leads, st)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(ev.Leads))
	assert.False(t, ev.InvalidDateRange)

	_, err := st.Select(Year, []string{"2024"})
	require.NoError(t, err)
	_, err = st.Select(Owner, []string{"Ann", "Bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(Evaluate(leads, st).Leads))

	_, err = st.Select(LeadSource, []string{"Other"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(Evaluate(leads, st).Leads))

	_, err = st.Select(Status, []string{"New"})
	require.NoError(t, err)
	assert.Empty(t, Evaluate(leads, st).Leads)
}

func TestEvaluateDateRangeInclusive(t *testing.T) {
	leads := fixture()
	st := NewState(OptionsFor(leads))
	st.Dates = DateRange{
		From: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	ev := Evaluate(leads, st)
	assert.Equal(t, []string{"2", "3", "4"}, ids(ev.Leads))
	assert.False(t, ev.InvalidDateRange)
}

func TestEvaluateInvalidDateRangeIsSkipped(t *testing.T) {
	leads := fixture()
	st := NewState(OptionsFor(leads))
	st.Dates = DateRange{
		From: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := st.Select(Product, []string{"Solar"})
	require.NoError(t, err)

	ev := Evaluate(leads, st)
	assert.True(t, ev.InvalidDateRange)
	assert.Equal(t, []string{"1", "3"}, ids(ev.Leads), "other filters still apply")
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	leads := fixture()
	before := append([]models.Lead(nil), leads...)
	st := NewState(OptionsFor(leads))
	_, _ = st.Select(Status, []string{"New"})

	first := Evaluate(leads, st)
	second := Evaluate(leads, st)

	assert.Equal(t, before, leads)
	assert.Equal(t, first, second)
}

func TestUndatedLeadHasNoYear(t *testing.T) {
	leads := append(fixture(), models.Lead{ID: "5", OwnerName: "Ann", Status: "New", LeadSource: models.SourceWebsite, StateCode: "CA"})
	st := NewState(OptionsFor(leads))
	assert.Equal(t, []string{"2023", "2024"}, st.Options()[Year])

	_, err := st.Select(Year, []string{"1"})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(Evaluate(leads, st).Leads), "no filter keeps undated leads")

	_, err = st.Select(Year, []string{"2023", "2024"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Evaluate(leads, st).Leads))
}

func TestUndatedLeadFailsDateRange(t *testing.T) {
	leads := []models.Lead{
		{ID: "1", CreatedAt: date(2024, time.January, 15)},
		{ID: "2"},
	}
	st := NewState(OptionsFor(leads))
	st.Dates = DateRange{From: date(1, time.January, 1), To: date(2024, time.December, 31)}

	assert.Equal(t, []string{"1"}, ids(Evaluate(leads, st).Leads))
}
