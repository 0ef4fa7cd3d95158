package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// MySQLStore implements Store using MySQL via go-sql-driver/mysql, for
// teams that keep review history on a shared server.
type MySQLStore struct {
	db  *sql.DB
	dsn string
}

// NewMySQL opens a MySQL connection using cfg.DSN.
func NewMySQL(cfg config.HistoryConfig) (*MySQLStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql DSN is required when driver is mysql")
	}

	// Append parseTime=true if not already set.
	dsn := cfg.DSN
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	m := &MySQLStore{db: db, dsn: dsn}
	if err := m.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}
	return m, nil
}

func (m *MySQLStore) Driver() string { return "mysql" }

func (m *MySQLStore) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQLStore) Close() error {
	return m.db.Close()
}

func (m *MySQLStore) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS reviews (
		id            BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		repository    VARCHAR(512) NOT NULL,
		pull_request  INT          NOT NULL,
		severity      VARCHAR(32)  NOT NULL,
		approved      TINYINT(1)   NOT NULL,
		vote          INT          NOT NULL,
		comment_count INT          NOT NULL,
		summary       TEXT         NOT NULL,
		reviewed_at   VARCHAR(64)  NOT NULL,
		INDEX idx_reviews_pr (repository(191), pull_request)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)
	if err != nil {
		return fmt.Errorf("creating reviews table: %w", err)
	}
	return nil
}

func (m *MySQLStore) Record(ctx context.Context, rec models.ReviewRecord) (int64, error) {
	reviewedAt := rec.ReviewedAt
	if reviewedAt.IsZero() {
		reviewedAt = time.Now().UTC()
	}
	res, err := m.db.ExecContext(ctx,
		`INSERT INTO reviews (repository, pull_request, severity, approved, vote, comment_count, summary, reviewed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Repository, rec.PullRequest, string(rec.Severity), rec.Approved,
		rec.Vote, rec.CommentCount, rec.Summary, reviewedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting review record: %w", err)
	}
	return res.LastInsertId()
}

func (m *MySQLStore) List(ctx context.Context, repository string, limit int) ([]models.ReviewRecord, error) {
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

	rows, err := m.db.QueryContext(ctx, query, args...)
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

func (m *MySQLStore) LastForPR(ctx context.Context, repository string, pullRequest int) (*models.ReviewRecord, error) {
	rows, err := m.db.QueryContext(ctx,
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
