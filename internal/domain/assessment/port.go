package assessment

import "context"

// HistoryRepository port (interface untuk persistence of finished assessments)
type HistoryRepository interface {
	Save(ctx context.Context, r *AssessmentResult) error
	Get(ctx context.Context, fingerprint string) (*AssessmentResult, error)
	Latest(ctx context.Context, limit int) ([]*AssessmentResult, error)
	Summary(ctx context.Context, sinceDays int) (*Summary, error)
}

// FailureRepository port (audit log of provider degradations)
type FailureRepository interface {
	Record(ctx context.Context, f *SourceFailure) error
	ListByFingerprint(ctx context.Context, fingerprint string, limit int) ([]*SourceFailure, error)
}

// ReportArchive port (interface untuk report storage). Best-effort: failures
// surface as partial_success, never as request errors.
type ReportArchive interface {
	PutReport(ctx context.Context, key string, report []byte) (string, error)
}
