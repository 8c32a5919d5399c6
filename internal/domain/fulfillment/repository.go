// internal/domain/fulfillment/repository.go
package fulfillment

import (
	"context"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/order"
)

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	SourceMonth day.Period
	Statuses    []Status
	ShopID      int
}

// Repository persists fulfillment records.
type Repository interface {
	// Create stores a new record and sets the order's status in the same transaction.
	// Returns ErrAlreadyInPipeline when the order already has a record.
	Create(ctx context.Context, rec *Record, orderStatus order.Status) error
	GetByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, f Filter) ([]*Record, error)
	// ApplyTransition writes rec's status and paired fields only if the stored status
	// still equals t.From, returning ErrStale otherwise. The order status side effect,
	// when orderStatus is non-empty, is written in the same transaction.
	ApplyTransition(ctx context.Context, rec *Record, t Transition, orderStatus order.Status) error
	// Delete removes the record and sets the order's status in the same transaction.
	Delete(ctx context.Context, id string, orderStatus order.Status) error
	CountByStatus(ctx context.Context, f Filter) (map[Status]int, error)
}
