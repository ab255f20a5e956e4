package failures

import (
	"context"
)

// Repository defines persistence for pipeline failures
type Repository interface {
	Save(ctx context.Context, f *Failure) error
	ListByFarmer(ctx context.Context, farmerID string, limit int) ([]*Failure, error)
}
