package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
)

// AssessmentRepository persists finished assessments. The queryable columns
// are duplicated out of the JSON payload so summaries stay cheap.
type AssessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// EnsureSchema creates the history table when missing.
func (r *AssessmentRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS risk_assessments (
 fingerprint     VARCHAR(32) PRIMARY KEY,
 input_type      VARCHAR(32)  NOT NULL DEFAULT '-',
 mode            VARCHAR(16)  NOT NULL DEFAULT 'normal',
 risk_score      INT          NOT NULL DEFAULT 0,
 risk_level      VARCHAR(8)   NOT NULL DEFAULT 'LOW',
 partial_success TINYINT(1)   NOT NULL DEFAULT 0,
 report_url      TEXT,
 detail_json     JSON         NOT NULL,
 assessed_at     DATETIME     NOT NULL,
 duration_ms     BIGINT       NOT NULL DEFAULT 0,
 KEY idx_assessed_at (assessed_at)
);`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save insert/update assessment record. Re-assessment of the same fingerprint
// replaces the stored row.
func (r *AssessmentRepository) Save(ctx context.Context, a *domain.AssessmentResult) error {
	const q = `
INSERT INTO risk_assessments
(fingerprint, input_type, mode, risk_score, risk_level, partial_success, report_url, detail_json, assessed_at, duration_ms)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 risk_score=VALUES(risk_score), risk_level=VALUES(risk_level),
 partial_success=VALUES(partial_success), report_url=VALUES(report_url),
 detail_json=VALUES(detail_json), assessed_at=VALUES(assessed_at), duration_ms=VALUES(duration_ms);
`
	detail, err := json.Marshal(a)
	if err != nil {
		return err
	}
	inputType := stringOrDash(a.InputType)
	assessed := a.AssessedAt
	if assessed.IsZero() {
		assessed = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q,
		a.Fingerprint, inputType, a.Mode, a.RiskScore, a.RiskLevel,
		a.PartialSuccess, a.ReportURL, detail, assessed.UTC(), a.DurationMS,
	)
	return err
}

// Get by fingerprint
func (r *AssessmentRepository) Get(ctx context.Context, fingerprint string) (*domain.AssessmentResult, error) {
	const q = `SELECT detail_json FROM risk_assessments WHERE fingerprint=? LIMIT 1;`
	var detail []byte
	if err := r.db.QueryRowContext(ctx, q, fingerprint).Scan(&detail); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var a domain.AssessmentResult
	if err := json.Unmarshal(detail, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Latest assessments, newest first
func (r *AssessmentRepository) Latest(ctx context.Context, limit int) ([]*domain.AssessmentResult, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT detail_json FROM risk_assessments ORDER BY assessed_at DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AssessmentResult
	for rows.Next() {
		var detail []byte
		if err := rows.Scan(&detail); err != nil {
			return nil, err
		}
		var a domain.AssessmentResult
		if err := json.Unmarshal(detail, &a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Summary counts assessments by level since N days
func (r *AssessmentRepository) Summary(ctx context.Context, sinceDays int) (*domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total,
       COALESCE(SUM(risk_level='HIGH'),0)   AS high,
       COALESCE(SUM(risk_level='MEDIUM'),0) AS medium,
       COALESCE(SUM(risk_level='LOW'),0)    AS low
FROM risk_assessments
WHERE assessed_at >= ?;
`
	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, cut).Scan(&s.Total, &s.High, &s.Medium, &s.Low); err != nil {
		return nil, err
	}
	return &s, nil
}
