package session

import (
	"log/slog"

	"github.com/AngelCh415/leadboard/internal/config"
	"github.com/AngelCh415/leadboard/internal/ingest"
	"github.com/AngelCh415/leadboard/internal/store"
)

// OpenSource builds the record source named by cfg.RecordSource. The
// returned close func is never nil, even when err is not.
func OpenSource(cfg config.Config, log *slog.Logger) (RecordSource, func() error, error) {
	noop := func() error { return nil }
	if cfg.RecordSource == config.SourceSQLite {
		src, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	}
	sf := ingest.NewSalesforce(ingest.NewHTTPClient(cfg.HTTPTimeout), cfg.Salesforce, log)
	return sf, noop, nil
}
