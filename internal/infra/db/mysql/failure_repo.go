package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
)

// FailureRepository is the audit log of provider degradations. Append-only.
type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

func (r *FailureRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS assessment_failures (
 id          BIGINT AUTO_INCREMENT PRIMARY KEY,
 fingerprint VARCHAR(32) NOT NULL,
 source      VARCHAR(32) NOT NULL,
 stage       VARCHAR(32) NOT NULL,
 message     TEXT        NOT NULL,
 occurred_at DATETIME    NOT NULL,
 KEY idx_fingerprint (fingerprint)
);`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *FailureRepository) Record(ctx context.Context, f *domain.SourceFailure) error {
	const q = `
INSERT INTO assessment_failures
  (fingerprint, source, stage, message, occurred_at)
VALUES (?,?,?,?,?)
`
	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	occurred := f.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(f.Fingerprint), stringOrDash(f.Source), stringOrDash(f.Stage), msg, occurred.UTC(),
	)
	return err
}

// ListByFingerprint returns the degradation events recorded for one
// assessment, newest first.
func (r *FailureRepository) ListByFingerprint(ctx context.Context, fingerprint string, limit int) ([]*domain.SourceFailure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT fingerprint, source, stage, message, occurred_at
FROM assessment_failures
WHERE fingerprint = ?
ORDER BY occurred_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, fingerprint, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.SourceFailure
	for rows.Next() {
		var f domain.SourceFailure
		if err := rows.Scan(&f.Fingerprint, &f.Source, &f.Stage, &f.Message, &f.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
