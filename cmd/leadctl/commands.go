package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/leadboard/internal/config"
	"github.com/AngelCh415/leadboard/internal/filter"
	"github.com/AngelCh415/leadboard/internal/ingest"
	"github.com/AngelCh415/leadboard/internal/session"
	"github.com/AngelCh415/leadboard/internal/store"
)

const dateLayout = "2006-01-02"

type app struct {
	cfg config.Config
	log *slog.Logger
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Lead dashboard reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			a.cfg = cfg
			// Logs go to stderr so stdout stays valid JSON.
			a.log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
			return nil
		},
	}
	root.AddCommand(newReportCmd(a), newSnapshotCmd(a))
	return root
}

// jsonSink keeps the last published snapshot until Flush writes it out.
type jsonSink struct {
	w    io.Writer
	last *session.Snapshot
}

func (j *jsonSink) Present(s session.Snapshot) { j.last = &s }

func (j *jsonSink) Flush() error {
	if j.last == nil {
		return session.ErrNotLoaded
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.last)
}

type reportCmd struct {
	app        *app
	selections map[filter.Dimension]*[]string
	flagNames  map[filter.Dimension]string
	from, to   string
	noAnalysis bool
	noMonthly  bool
	noMap      bool
}

func newReportCmd(a *app) *cobra.Command {
	rc := &reportCmd{app: a, selections: map[filter.Dimension]*[]string{}}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Load leads, apply filters and print the dashboard views as JSON",
		RunE:  rc.run,
	}
	rc.flagNames = map[filter.Dimension]string{
		filter.Year:       "year",
		filter.Owner:      "owner",
		filter.LeadSource: "lead-source",
		filter.Status:     "status",
		filter.Product:    "product",
	}
	for _, d := range filter.Dimensions {
		v := new([]string)
		rc.selections[d] = v
		cmd.Flags().StringSliceVar(v, rc.flagNames[d], nil, fmt.Sprintf("restrict %s (repeatable, %q keeps everything)", d, filter.All))
	}
	cmd.Flags().StringVar(&rc.from, "from", "", "first creation day, YYYY-MM-DD")
	cmd.Flags().StringVar(&rc.to, "to", "", "last creation day, YYYY-MM-DD")
	cmd.Flags().BoolVar(&rc.noAnalysis, "no-analysis", false, "skip status and source counts")
	cmd.Flags().BoolVar(&rc.noMonthly, "no-monthly", false, "skip the monthly distribution")
	cmd.Flags().BoolVar(&rc.noMap, "no-map", false, "skip the state breakdown")
	return cmd
}

func (rc *reportCmd) run(cmd *cobra.Command, args []string) error {
	a := rc.app
	src, closeSrc, err := session.OpenSource(a.cfg, a.log)
	if err != nil {
		return err
	}
	defer closeSrc()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.HTTPTimeout)
	defer cancel()

	// Each edit publishes a snapshot; only the last one is printed.
	sink := &jsonSink{w: a.out}
	s := session.New(src, session.WithLogger(a.log), session.WithSink(sink))
	if _, err := s.Load(ctx); err != nil {
		return err
	}
	for _, d := range filter.Dimensions {
		if vals := *rc.selections[d]; len(vals) > 0 {
			if _, err := s.Select(d, vals); err != nil {
				return fmt.Errorf("--%s: %w", rc.flagNames[d], err)
			}
		}
	}
	if rc.from != "" || rc.to != "" {
		from, to, err := parseRange(rc.from, rc.to)
		if err != nil {
			return err
		}
		if _, err := s.SetDateRange(from, to); err != nil {
			return err
		}
	}
	if _, err := s.SetToggles(filter.Toggles{
		LeadAnalysis:        !rc.noAnalysis,
		MonthlyDistribution: !rc.noMonthly,
		StateMap:            !rc.noMap,
	}); err != nil {
		return err
	}
	return sink.Flush()
}

// parseRange fills a missing bound with the other so a single flag selects
// one day.
func parseRange(from, to string) (time.Time, time.Time, error) {
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
	}
	return f, t, nil
}

func newSnapshotCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Copy every lead from Salesforce into a SQLite file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = a.cfg.SQLitePath
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.HTTPTimeout)
			defer cancel()

			sf := ingest.NewSalesforce(ingest.NewHTTPClient(a.cfg.HTTPTimeout), a.cfg.Salesforce, a.log)
			return snapshot(ctx, sf, path, a.out)
		},
	}
	cmd.Flags().StringVar(&path, "db", "", "SQLite file to write (defaults to SQLITE_PATH)")
	return cmd
}

func snapshot(ctx context.Context, src session.RecordSource, path string, out io.Writer) error {
	recs, err := src.FetchAllLeads(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrFetchFailure, err)
	}
	db, err := store.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SaveLeads(ctx, recs); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "saved %d leads to %s\n", len(recs), path)
	return err
}
