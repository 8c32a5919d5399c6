// internal/domain/fulfillment/note.go
package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecommify/internal/domain/day"
)

var ErrNoteNotFound = fmt.Errorf("pipeline note not found")
var ErrEmptyNote = fmt.Errorf("pipeline note content is empty")

// Note is an operator remark about a whole pipeline month, not a single record.
type Note struct {
	ID          string
	Content     string
	SourceMonth day.Period
	CreatedBy   string
	CreatedAt   time.Time
}

// Validate trims the content and checks the fields an operator supplies.
func (n *Note) Validate() error {
	n.Content = strings.TrimSpace(n.Content)
	if n.Content == "" {
		return ErrEmptyNote
	}
	if n.SourceMonth.IsZero() {
		return fmt.Errorf("%w: %q", day.ErrInvalidPeriod, n.SourceMonth)
	}
	return nil
}

// NoteRepository persists pipeline notes.
type NoteRepository interface {
	Create(ctx context.Context, n *Note) error
	// ListByPeriod returns the notes of one source month, oldest first.
	ListByPeriod(ctx context.Context, p day.Period) ([]*Note, error)
	// Delete returns ErrNoteNotFound when no note has the id.
	Delete(ctx context.Context, id string) error
}
