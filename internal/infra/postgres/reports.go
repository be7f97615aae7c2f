// Package postgres persists scored reports. The schema is a single flat
// table; metric breakdowns and rejection entries are stored as JSONB
// documents rather than joined rows, since they are always read and written
// as one unit with the report.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verocta/spendscore/internal/domain"
	"github.com/verocta/spendscore/internal/score"
)

// ErrReportNotFound is returned when no report exists for the requested id.
var ErrReportNotFound = errors.New("postgres: report not found")

// Report is one persisted scoring run: the file identity, the overall
// result, and its full metric and rejection breakdown.
type Report struct {
	ID            string                 `json:"id"`
	FileID        string                 `json:"file_id"`
	Filename      string                 `json:"filename"`
	Vendor        string                 `json:"vendor"`
	SpendScore    int                    `json:"spend_score"`
	Tier          string                 `json:"tier"`
	LowConfidence bool                   `json:"low_confidence"`
	Metrics       []score.WeightedMetric `json:"metrics"`
	Rejections    []domain.Rejection     `json:"rejections"`
	CreatedAt     time.Time              `json:"created_at"`
}

// NewReport assembles a Report from one pipeline run.
func NewReport(filename, vendor string, result *score.Result, rejections *domain.RejectionReport) *Report {
	return &Report{
		ID:            uuid.New().String(),
		FileID:        rejections.FileID,
		Filename:      filename,
		Vendor:        vendor,
		SpendScore:    result.Score,
		Tier:          string(result.Tier),
		LowConfidence: result.LowConfidence,
		Metrics:       result.Metrics,
		Rejections:    rejections.Rejections,
		CreatedAt:     result.ComputedAt,
	}
}

// ReportStore defines the persistence operations the API needs.
type ReportStore interface {
	// SaveReport persists a report.
	SaveReport(ctx context.Context, report *Report) error

	// GetReport retrieves a report by id. Returns ErrReportNotFound if it
	// does not exist.
	GetReport(ctx context.Context, id string) (*Report, error)

	// ListReports retrieves reports newest first.
	ListReports(ctx context.Context, limit, offset int) ([]*Report, error)
}

// Store is the pgx-backed ReportStore.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pool to the given database URL and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the reports table if it does not exist. Idempotent;
// called once at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reports (
			id             UUID PRIMARY KEY,
			file_id        TEXT NOT NULL,
			filename       TEXT NOT NULL,
			vendor         TEXT NOT NULL,
			spend_score    INTEGER NOT NULL,
			tier           TEXT NOT NULL,
			low_confidence BOOLEAN NOT NULL,
			metrics        JSONB NOT NULL,
			rejections     JSONB NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return nil
}

// SaveReport implements ReportStore.
func (s *Store) SaveReport(ctx context.Context, report *Report) error {
	metrics, err := json.Marshal(report.Metrics)
	if err != nil {
		return fmt.Errorf("SaveReport: encoding metrics: %w", err)
	}
	rejections, err := json.Marshal(report.Rejections)
	if err != nil {
		return fmt.Errorf("SaveReport: encoding rejections: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (id, file_id, filename, vendor, spend_score, tier, low_confidence, metrics, rejections, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		report.ID,
		report.FileID,
		report.Filename,
		report.Vendor,
		report.SpendScore,
		report.Tier,
		report.LowConfidence,
		metrics,
		rejections,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("SaveReport: %w", err)
	}
	return nil
}

// GetReport implements ReportStore.
func (s *Store) GetReport(ctx context.Context, id string) (*Report, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, file_id, filename, vendor, spend_score, tier, low_confidence, metrics, rejections, created_at
		FROM reports
		WHERE id = $1
	`, id)

	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetReport: %w", err)
	}
	return report, nil
}

// ListReports implements ReportStore.
func (s *Store) ListReports(ctx context.Context, limit, offset int) ([]*Report, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, file_id, filename, vendor, spend_score, tier, low_confidence, metrics, rejections, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListReports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("ListReports: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListReports: iterating: %w", err)
	}
	return reports, nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var (
		report     Report
		metrics    []byte
		rejections []byte
	)
	err := row.Scan(
		&report.ID,
		&report.FileID,
		&report.Filename,
		&report.Vendor,
		&report.SpendScore,
		&report.Tier,
		&report.LowConfidence,
		&metrics,
		&rejections,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metrics, &report.Metrics); err != nil {
		return nil, fmt.Errorf("decoding metrics: %w", err)
	}
	if err := json.Unmarshal(rejections, &report.Rejections); err != nil {
		return nil, fmt.Errorf("decoding rejections: %w", err)
	}
	return &report, nil
}

var _ ReportStore = (*Store)(nil)
