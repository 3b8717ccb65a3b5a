package renderstats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS render_stats (
    template_name TEXT     PRIMARY KEY,
    renders       INTEGER  NOT NULL DEFAULT 0,
    failures      INTEGER  NOT NULL DEFAULT 0,
    bytes_written INTEGER  NOT NULL DEFAULT 0,
    total_micros  INTEGER  NOT NULL DEFAULT 0,
    first_seen    DATETIME NOT NULL,
    last_seen     DATETIME NOT NULL
);
`

const (
	recordQuery = `
        INSERT INTO render_stats (template_name, renders, failures, bytes_written, total_micros, first_seen, last_seen)
        VALUES (?, 1, ?, ?, ?, ?, ?)
        ON CONFLICT(template_name) DO UPDATE SET
            renders       = renders + 1,
            failures      = failures + excluded.failures,
            bytes_written = bytes_written + excluded.bytes_written,
            total_micros  = total_micros + excluded.total_micros,
            last_seen     = excluded.last_seen`
	selectColumns = `SELECT template_name, renders, failures, bytes_written, total_micros, first_seen, last_seen FROM render_stats`
	getQuery      = selectColumns + ` WHERE template_name = ?`
	topQuery      = selectColumns + ` ORDER BY renders DESC, template_name ASC LIMIT ?`
	summaryQuery  = `SELECT COUNT(*), COALESCE(SUM(renders), 0), COALESCE(SUM(failures), 0), COALESCE(SUM(bytes_written), 0) FROM render_stats`
)

// ErrNotFound is returned by Get for a template that has never been rendered.
var ErrNotFound = errors.New("renderstats: template not found")

// Render describes a single template execution.
type Render struct {
	Template string
	Bytes    int
	Duration time.Duration
	Err      error
	// At is when the render happened; the zero value means now.
	At time.Time
}

// TemplateStats holds the accumulated statistics for one template.
type TemplateStats struct {
	Template     string        `json:"template"`
	Renders      int64         `json:"renders"`
	Failures     int64         `json:"failures"`
	BytesWritten int64         `json:"bytes_written"`
	AvgDuration  time.Duration `json:"avg_duration"`
	FirstSeen    time.Time     `json:"first_seen"`
	LastSeen     time.Time     `json:"last_seen"`
}

// Summary provides a high-level overview of all collected stats.
type Summary struct {
	Templates     int64 `json:"templates"`
	TotalRenders  int64 `json:"total_renders"`
	TotalFailures int64 `json:"total_failures"`
	TotalBytes    int64 `json:"total_bytes"`
}

// Store records and queries render statistics using prepared statements.
// It is safe for concurrent use, as is the underlying *sql.DB.
type Store struct {
	db         *sql.DB
	stmtRecord *sql.Stmt
	stmtGet    *sql.Stmt
	stmtTop    *sql.Stmt
}

// SetupSchema creates the statistics table if it does not exist yet.
func SetupSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// NewStore prepares the statements used by the Store. The schema must already exist.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	var err error
	if s.stmtRecord, err = db.Prepare(recordQuery); err != nil {
		return nil, fmt.Errorf("failed to prepare record statement: %w", err)
	}
	if s.stmtGet, err = db.Prepare(getQuery); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to prepare get statement: %w", err)
	}
	if s.stmtTop, err = db.Prepare(topQuery); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to prepare top statement: %w", err)
	}
	return s, nil
}

// Close releases the prepared statements. It does not close the database.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{s.stmtRecord, s.stmtGet, s.stmtTop} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// Record adds one render to the statistics of its template.
func (s *Store) Record(ctx context.Context, r Render) error {
	if r.Template == "" {
		return fmt.Errorf("renderstats: empty template name")
	}
	at := r.At
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	failed := 0
	if r.Err != nil {
		failed = 1
	}
	_, err := s.stmtRecord.ExecContext(ctx, r.Template, failed, r.Bytes, r.Duration.Microseconds(), at, at)
	if err != nil {
		return fmt.Errorf("failed to record render of %s: %w", r.Template, err)
	}
	return nil
}

// Get returns the statistics of a single template.
func (s *Store) Get(ctx context.Context, name string) (TemplateStats, error) {
	stats, err := scanStats(s.stmtGet.QueryRowContext(ctx, name))
	if errors.Is(err, sql.ErrNoRows) {
		return TemplateStats{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return stats, err
}

// Top returns up to limit templates, most rendered first.
func (s *Store) Top(ctx context.Context, limit int) ([]TemplateStats, error) {
	rows, err := s.stmtTop.QueryContext(ctx, limit)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	results := []TemplateStats{}
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, stats)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary aggregates the statistics of every template.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, summaryQuery).Scan(&sum.Templates, &sum.TotalRenders, &sum.TotalFailures, &sum.TotalBytes)
	return sum, err
}

// Reset forgets every recorded render.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM render_stats`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStats(row rowScanner) (TemplateStats, error) {
	var (
		stats       TemplateStats
		totalMicros int64
	)
	err := row.Scan(&stats.Template, &stats.Renders, &stats.Failures, &stats.BytesWritten,
		&totalMicros, &stats.FirstSeen, &stats.LastSeen)
	if err != nil {
		return TemplateStats{}, err
	}
	if stats.Renders > 0 {
		stats.AvgDuration = time.Duration(totalMicros/stats.Renders) * time.Microsecond
	}
	return stats, nil
}
