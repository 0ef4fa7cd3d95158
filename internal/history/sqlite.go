package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// SQLiteStore implements Store using SQLite via mattn/go-sqlite3.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the SQLite database at cfg.Path.
func NewSQLite(cfg config.HistoryConfig) (*SQLiteStore, error) {
	path := cfg.Path
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, config.DefaultDBFile)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Driver() string { return "sqlite" }

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS reviews (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		repository    TEXT    NOT NULL,
		pull_request  INTEGER NOT NULL,
		severity      TEXT    NOT NULL,
		approved      INTEGER NOT NULL,
		vote          INTEGER NOT NULL,
		comment_count INTEGER NOT NULL,
		summary       TEXT    NOT NULL,
		reviewed_at   TEXT    NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating reviews table: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_reviews_pr ON reviews (repository, pull_request)`)
	if err != nil {
		return fmt.Errorf("creating reviews index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, rec models.ReviewRecord) (int64, error) {
	reviewedAt := rec.ReviewedAt
	if reviewedAt.IsZero() {
		reviewedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (repository, pull_request, severity, approved, vote, comment_count, summary, reviewed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Repository, rec.PullRequest, string(rec.Severity), rec.Approved,
		rec.Vote, rec.CommentCount, rec.Summary, reviewedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting review record: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) List(ctx context.Context, repository string, limit int) ([]models.ReviewRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, repository, pull_request, severity, approved, vote, comment_count, summary, reviewed_at
		FROM reviews`
	args := []any{}
	if repository != "" {
		query += ` WHERE repository = ?`
		args = append(args, repository)
	}
	query += ` ORDER BY reviewed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var records []models.ReviewRecord
	for rows.Next() {
		rec, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) LastForPR(ctx context.Context, repository string, pullRequest int) (*models.ReviewRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repository, pull_request, severity, approved, vote, comment_count, summary, reviewed_at
		 FROM reviews WHERE repository = ? AND pull_request = ?
		 ORDER BY reviewed_at DESC, id DESC LIMIT 1`,
		repository, pullRequest)
	if err != nil {
		return nil, fmt.Errorf("querying last review: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanReview(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanReview reads one row; reviewed_at is stored as RFC3339 text in SQLite
// and as DATETIME in MySQL, so both scans go through a string.
func scanReview(rows *sql.Rows) (models.ReviewRecord, error) {
	var rec models.ReviewRecord
	var severity, reviewedAt string
	if err := rows.Scan(&rec.ID, &rec.Repository, &rec.PullRequest, &severity,
		&rec.Approved, &rec.Vote, &rec.CommentCount, &rec.Summary, &reviewedAt); err != nil {
		return rec, fmt.Errorf("scanning review row: %w", err)
	}
	rec.Severity = models.ReviewSeverity(severity)
	t, err := time.Parse(time.RFC3339, reviewedAt)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04:05", reviewedAt)
		if err != nil {
			return rec, errors.New("unparsable reviewed_at timestamp: " + reviewedAt)
		}
	}
	rec.ReviewedAt = t
	return rec, nil
}
