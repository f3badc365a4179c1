package domain

import "context"

// JobRepository is the driven port for link-check job persistence.
type JobRepository interface {
	Create(ctx context.Context, text string) (*Job, error)
	Get(ctx context.Context, id int64) (*Job, error)
	FindPending(ctx context.Context, limit int) ([]Job, error)
	Claim(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64, results []VerifiedLink) error
	Fail(ctx context.Context, id int64, reason string) error
	Retry(ctx context.Context, id int64, reason string) error
	RecoverStale(ctx context.Context) (int64, error)
}

// LinkProber is the driven port for outbound link checks. It returns the
// response status code, or an error if no response was received.
type LinkProber interface {
	Probe(ctx context.Context, url string) (int, error)
}
