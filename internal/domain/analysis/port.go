package analysis

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, res *Result) error
	Get(ctx context.Context, farmerID string, d Domain, id ResultID) (*Result, error)
	Latest(ctx context.Context, farmerID string, d Domain, limit int) ([]*Result, error)
	Paginate(ctx context.Context, farmerID string, d Domain, page, pageSize int) ([]*Result, error)
}

// ModelClient port (interface untuk model generatif eksternal).
// Generate must honour ctx cancellation/deadline; the caller owns the timeout.
type ModelClient interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// PromptBuilder port. Build is deterministic for a given (req, now) pair.
type PromptBuilder interface {
	Build(req Request, now time.Time) (Prompt, error)
}

// ImageStore port (interface untuk penyimpanan foto sampel)
type ImageStore interface {
	UploadImage(ctx context.Context, key string, a Attachment) (string, error)
}
