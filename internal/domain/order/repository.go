package order

import (
	"context"
)

// Repository defines the order operations used by the pipeline.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
}
