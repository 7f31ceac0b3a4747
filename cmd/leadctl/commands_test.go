package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/leadboard/internal/metrics"
	"github.com/AngelCh415/leadboard/internal/models"
	"github.com/AngelCh415/leadboard/internal/session"
	"github.com/AngelCh415/leadboard/internal/store"
)

type stubSource struct {
	recs []models.RawRecord
	err  error
}

func (s stubSource) FetchAllLeads(context.Context) ([]models.RawRecord, error) {
	return s.recs, s.err
}

func seed() []models.RawRecord {
	return []models.RawRecord{
		{ID: "1", OwnerName: "Ann", Status: "New", LeadSource: "Website", State: "CA", CreatedAt: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "2", OwnerName: "Bob", Status: "Working", LeadSource: "Indeed", State: "TX", CreatedAt: time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)},
		{ID: "3", OwnerName: "Bob", Status: "New", LeadSource: "Partner", State: "Ohio", CreatedAt: time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func seededDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.db")
	var out bytes.Buffer
	require.NoError(t, snapshot(context.Background(), stubSource{recs: seed()}, path, &out))
	assert.Contains(t, out.String(), "saved 3 leads")
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := seededDB(t)

	db, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	recs, err := db.FetchAllLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Partner", recs[2].LeadSource)
}

func TestSnapshotFetchFailure(t *testing.T) {
	err := snapshot(context.Background(), stubSource{err: errors.New("boom")}, filepath.Join(t.TempDir(), "x.db"), &bytes.Buffer{})
	assert.ErrorIs(t, err, session.ErrFetchFailure)
}

func TestReportFromSQLite(t *testing.T) {
	t.Setenv("RECORD_SOURCE", "sqlite")
	t.Setenv("SQLITE_PATH", seededDB(t))

	out, err := runCLI(t, "report", "--owner", "Bob", "--no-map")
	require.NoError(t, err)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 2, snap.FilteredCount)
	assert.False(t, snap.Toggles.StateMap)
	assert.Nil(t, snap.Views.States)
	assert.ElementsMatch(t, []string{"Indeed", "Other"}, keys(snap.Views.SourceCounts))
}

func TestReportDateRange(t *testing.T) {
	t.Setenv("RECORD_SOURCE", "sqlite")
	t.Setenv("SQLITE_PATH", seededDB(t))

	out, err := runCLI(t, "report", "--from", "2024-01-01", "--to", "2024-01-31")
	require.NoError(t, err)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 1, snap.FilteredCount)

	out, err = runCLI(t, "report", "--from", "2024-12-01", "--to", "2024-01-01")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.True(t, snap.InvalidDateRange)
	assert.Equal(t, 3, snap.FilteredCount)
}

func TestReportRejectsIneligibleValue(t *testing.T) {
	t.Setenv("RECORD_SOURCE", "sqlite")
	t.Setenv("SQLITE_PATH", seededDB(t))

	_, err := runCLI(t, "report", "--status", "Closed")
	assert.ErrorContains(t, err, "--status")

	_, err = runCLI(t, "report", "--from", "Jan 1")
	assert.ErrorContains(t, err, "--from")
}

func TestParseRangeSingleBound(t *testing.T) {
	from, to, err := parseRange("", "2024-02-02")
	require.NoError(t, err)
	assert.Equal(t, from, to)
}

func keys(cs []metrics.Count) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Key)
	}
	return out
}
