package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLite stores records in a local SQLite database.
type SQLite struct {
	db   *sql.DB
	mode KeyMode
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string, mode KeyMode) (*SQLite, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if mode == "" {
		mode = KeyByPeriod
	}
	s := &SQLite{db: db, mode: mode}
	if err := s.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS weekly_records (
			doc_key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			verse_count REAL NOT NULL,
			category TEXT NOT NULL,
			juz TEXT NOT NULL,
			attendance INTEGER NOT NULL,
			submission_fluency INTEGER NOT NULL,
			review_fluency INTEGER NOT NULL,
			recitation_fluency INTEGER NOT NULL,
			total_fluency REAL NOT NULL,
			week INTEGER NOT NULL,
			month TEXT NOT NULL,
			year INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_weekly_records_period ON weekly_records(year, month, week);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertRecord inserts rec or replaces the row with the same key.
func (s *SQLite) UpsertRecord(ctx context.Context, rec model.WeeklyRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	juz, err := json.Marshal(nonNilJuz(rec.Juz))
	if err != nil {
		return fmt.Errorf("failed to encode juz: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO weekly_records (doc_key, name, verse_count, category, juz, attendance,
			submission_fluency, review_fluency, recitation_fluency, total_fluency, week, month, year, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(doc_key) DO UPDATE SET
			name = excluded.name,
			verse_count = excluded.verse_count,
			category = excluded.category,
			juz = excluded.juz,
			attendance = excluded.attendance,
			submission_fluency = excluded.submission_fluency,
			review_fluency = excluded.review_fluency,
			recitation_fluency = excluded.recitation_fluency,
			total_fluency = excluded.total_fluency,
			week = excluded.week,
			month = excluded.month,
			year = excluded.year,
			updated_at = excluded.updated_at`,
		DocKey(s.mode, rec),
		rec.Name,
		rec.VerseCount,
		string(rec.Category),
		string(juz),
		rec.Attendance,
		rec.SubmissionFluency,
		rec.ReviewFluency,
		rec.RecitationFluency,
		rec.TotalFluency,
		rec.Period.Week,
		rec.Period.Month,
		rec.Period.Year,
		rec.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record %q: %w", rec.Name, err)
	}
	return nil
}

// FetchPeriod returns the records of p ordered by name.
func (s *SQLite) FetchPeriod(ctx context.Context, p model.Period) ([]model.WeeklyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, verse_count, category, juz, attendance, submission_fluency, review_fluency,
			recitation_fluency, total_fluency, week, month, year, updated_at
		 FROM weekly_records
		 WHERE week = ? AND month = ? AND year = ?
		 ORDER BY name ASC, doc_key ASC`,
		p.Week, p.Month, p.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.WeeklyRecord
	for rows.Next() {
		var rec model.WeeklyRecord
		var category, juz, updatedAt string
		if err := rows.Scan(&rec.Name, &rec.VerseCount, &category, &juz, &rec.Attendance,
			&rec.SubmissionFluency, &rec.ReviewFluency, &rec.RecitationFluency, &rec.TotalFluency,
			&rec.Period.Week, &rec.Period.Month, &rec.Period.Year, &updatedAt); err != nil {
			return nil, err
		}
		rec.Category = model.Category(category)
		if err := json.Unmarshal([]byte(juz), &rec.Juz); err != nil {
			return nil, fmt.Errorf("failed to decode juz of %q: %w", rec.Name, err)
		}
		if len(rec.Juz) == 0 {
			rec.Juz = nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, err
		}
		rec.UpdatedAt = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListPeriods returns every stored period with its record count.
func (s *SQLite) ListPeriods(ctx context.Context) ([]model.PeriodCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT week, month, year, COUNT(*) FROM weekly_records GROUP BY year, month, week`)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var periods []model.PeriodCount
	for rows.Next() {
		var pc model.PeriodCount
		if err := rows.Scan(&pc.Period.Week, &pc.Period.Month, &pc.Period.Year, &pc.Count); err != nil {
			return nil, err
		}
		periods = append(periods, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortPeriods(periods)
	return periods, nil
}

func nonNilJuz(juz []int) []int {
	if juz == nil {
		return []int{}
	}
	return juz
}
