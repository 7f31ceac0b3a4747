package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AngelCh415/leadboard/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL,
	name            TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT '',
	owner_name      TEXT NOT NULL DEFAULT '',
	lead_source     TEXT NOT NULL DEFAULT '',
	product         TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT '',
	state_province  TEXT NOT NULL DEFAULT '',
	street          TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL DEFAULT ''
);`

// SQLiteSource serves raw leads from a local snapshot, so reports can run
// without CRM credentials.
type SQLiteSource struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// :memory: databases are per-connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Close() error { return s.db.Close() }

// SaveLeads replaces the snapshot with recs.
func (s *SQLiteSource) SaveLeads(ctx context.Context, recs []models.RawRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leads`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO leads
		(id, name, status, owner_name, lead_source, product, state, state_province, street, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Name, r.Status, r.OwnerName, r.LeadSource, r.Product,
			r.State, r.StateProvince, r.Street, created,
		); err != nil {
			return fmt.Errorf("insert lead %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteSource) FetchAllLeads(ctx context.Context) ([]models.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, name, status, owner_name, lead_source, product, state, state_province, street, created_at
		FROM leads ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var out []models.RawRecord
	for rows.Next() {
		var r models.RawRecord
		var created string
		if err := rows.Scan(&r.ID, &r.Name, &r.Status, &r.OwnerName, &r.LeadSource, &r.Product,
			&r.State, &r.StateProvince, &r.Street, &created); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		if created != "" {
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				r.CreatedAt = t
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
