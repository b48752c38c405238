package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"jobfeed-engine/internal/domain"
)

// SQLite is the durable Store implementation. Single writer connection:
// that is what sqlite wants, and it also serializes the upsert/deactivate
// sequence at the database level.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLite{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  canonical_id TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  external_id TEXT NOT NULL,
  company_id TEXT NOT NULL,
  company_name TEXT NOT NULL,
  title TEXT NOT NULL,
  apply_url TEXT NOT NULL DEFAULT '',
  source_url TEXT NOT NULL DEFAULT '',
  locations TEXT NOT NULL DEFAULT '[]',
  countries TEXT NOT NULL DEFAULT '[]',
  primary_country TEXT NOT NULL DEFAULT 'UNKNOWN',
  posted_at TEXT,
  updated_at TEXT,
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  last_seen_at TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company_id);`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_jobs_active ON jobs(is_active);`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Upsert(ctx context.Context, jobs []domain.NormalizedJob) (Stats, error) {
	var stats Stats
	now := s.now().UTC().Format(time.RFC3339)

	for _, in := range jobs {
		if in.CanonicalID == "" {
			stats.Failed++
			continue
		}

		old, exists, err := s.get(ctx, in.CanonicalID)
		if err != nil {
			stats.Failed++
			continue
		}

		if !exists {
			if err := s.insert(ctx, in, now); err != nil {
				stats.Failed++
				continue
			}
			stats.Inserted++
			continue
		}

		if changed(old, in) {
			if err := s.update(ctx, in, now); err != nil {
				stats.Failed++
				continue
			}
			stats.Updated++
			continue
		}

		if _, err := s.db.ExecContext(ctx,
			`UPDATE jobs SET last_seen_at = ?, is_active = 1 WHERE canonical_id = ?;`,
			now, in.CanonicalID); err != nil {
			stats.Failed++
			continue
		}
		stats.Unchanged++
	}
	return stats, nil
}

func (s *SQLite) insert(ctx context.Context, in domain.NormalizedJob, now string) error {
	locs, _ := json.Marshal(orEmpty(in.Locations))
	countries, _ := json.Marshal(orEmpty(in.Countries))

	_, err := s.db.ExecContext(ctx, `
INSERT INTO jobs (canonical_id, source, external_id, company_id, company_name, title,
  apply_url, source_url, locations, countries, primary_country,
  posted_at, updated_at, description, created_at, last_seen_at, is_active)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,1);`,
		in.CanonicalID, in.Source, in.ExternalID, in.CompanyID, in.CompanyName, in.Title,
		in.ApplyURL, in.SourceURL, string(locs), string(countries), in.PrimaryCountry,
		timePtr(in.PostedAt), timePtr(in.UpdatedAt), in.Description, now, now,
	)
	return err
}

func (s *SQLite) update(ctx context.Context, in domain.NormalizedJob, now string) error {
	locs, _ := json.Marshal(orEmpty(in.Locations))
	countries, _ := json.Marshal(orEmpty(in.Countries))

	_, err := s.db.ExecContext(ctx, `
UPDATE jobs SET source = ?, external_id = ?, company_id = ?, company_name = ?, title = ?,
  apply_url = ?, source_url = ?, locations = ?, countries = ?, primary_country = ?,
  posted_at = ?, updated_at = ?, description = ?, last_seen_at = ?, is_active = 1
WHERE canonical_id = ?;`,
		in.Source, in.ExternalID, in.CompanyID, in.CompanyName, in.Title,
		in.ApplyURL, in.SourceURL, string(locs), string(countries), in.PrimaryCountry,
		timePtr(in.PostedAt), timePtr(in.UpdatedAt), in.Description, now,
		in.CanonicalID,
	)
	return err
}

func (s *SQLite) MarkMissingInactive(ctx context.Context, companyID string, currentIDs []string) (int, error) {
	query := `UPDATE jobs SET is_active = 0 WHERE company_id = ? AND is_active = 1`
	args := []any{companyID}

	if len(currentIDs) > 0 {
		query += ` AND canonical_id NOT IN (?` + strings.Repeat(",?", len(currentIDs)-1) + `)`
		for _, id := range currentIDs {
			args = append(args, id)
		}
	}

	res, err := s.db.ExecContext(ctx, query+";", args...)
	if err != nil {
		return 0, fmt.Errorf("mark missing inactive: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLite) ListJobs(ctx context.Context, opts ListOpts) ([]domain.JobRecord, error) {
	query := `
SELECT canonical_id, source, external_id, company_id, company_name, title,
  apply_url, source_url, locations, countries, primary_country,
  posted_at, updated_at, description, created_at, last_seen_at, is_active
FROM jobs`
	var where []string
	var args []any

	if opts.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if opts.CompanyID != "" {
		where = append(where, "company_id = ?")
		args = append(args, opts.CompanyID)
	}
	if opts.Country != "" {
		// countries is a JSON array of bare ISO codes
		where = append(where, "countries LIKE ?")
		args = append(args, `%"`+opts.Country+`"%`)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY company_name, title;"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobRecord
	for rows.Next() {
		var (
			rec              domain.JobRecord
			locs, countries  string
			posted, updated  sql.NullString
			created, seen    string
			active           int
		)
		if err := rows.Scan(
			&rec.CanonicalID, &rec.Source, &rec.ExternalID, &rec.CompanyID, &rec.CompanyName, &rec.Title,
			&rec.ApplyURL, &rec.SourceURL, &locs, &countries, &rec.PrimaryCountry,
			&posted, &updated, &rec.Description, &created, &seen, &active,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(locs), &rec.Locations)
		_ = json.Unmarshal([]byte(countries), &rec.Countries)
		if len(rec.Locations) == 0 {
			rec.Locations = nil
		}
		if len(rec.Countries) == 0 {
			rec.Countries = nil
		}
		rec.PostedAt = parseNullTime(posted)
		rec.UpdatedAt = parseNullTime(updated)
		rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
		rec.LastSeenAt, _ = time.Parse(time.RFC3339, seen)
		rec.IsActive = active == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }

func orEmpty(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func (s *SQLite) get(ctx context.Context, canonicalID string) (domain.JobRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT canonical_id, title, apply_url, locations, countries
FROM jobs WHERE canonical_id = ? LIMIT 1;`, canonicalID)

	var rec domain.JobRecord
	var locs, countries string
	err := row.Scan(&rec.CanonicalID, &rec.Title, &rec.ApplyURL, &locs, &countries)
	if err == sql.ErrNoRows {
		return domain.JobRecord{}, false, nil
	}
	if err != nil {
		return domain.JobRecord{}, false, err
	}
	_ = json.Unmarshal([]byte(locs), &rec.Locations)
	_ = json.Unmarshal([]byte(countries), &rec.Countries)
	if len(rec.Locations) == 0 {
		rec.Locations = nil
	}
	if len(rec.Countries) == 0 {
		rec.Countries = nil
	}
	return rec, true, nil
}
