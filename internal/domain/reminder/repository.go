// internal/domain/reminder/repository.go
package reminder

import (
	"context"

	"ecommify/internal/domain/day"
)

// Repository persists reminders.
type Repository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id string) (*Reminder, error)
	Update(ctx context.Context, r *Reminder) error // Title, Date, Time, Recurring, Done
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*Reminder, error) // recurring reminders can match any month
}

// NoteRepository persists calendar notes.
type NoteRepository interface {
	Create(ctx context.Context, n *Note) error
	Delete(ctx context.Context, id string) error
	ListByPeriod(ctx context.Context, p day.Period) ([]*Note, error)
}
