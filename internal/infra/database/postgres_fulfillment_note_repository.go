package database

import (
	"context"
	"database/sql"
	"fmt"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/fulfillment"
)

type PostgresFulfillmentNoteRepository struct {
	db *sql.DB
}

func NewPostgresFulfillmentNoteRepository(db *sql.DB) *PostgresFulfillmentNoteRepository {
	return &PostgresFulfillmentNoteRepository{db: db}
}

func (r *PostgresFulfillmentNoteRepository) Create(ctx context.Context, n *fulfillment.Note) error {
	query := `INSERT INTO fulfillment_notes (id, content, source_month, created_by, created_at)
              VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.Content, n.SourceMonth.String(), n.CreatedBy, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating pipeline note: %w", err)
	}
	return nil
}

func (r *PostgresFulfillmentNoteRepository) ListByPeriod(ctx context.Context, p day.Period) ([]*fulfillment.Note, error) {
	query := `SELECT id, content, source_month, created_by, created_at
              FROM fulfillment_notes WHERE source_month = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, p.String())
	if err != nil {
		return nil, fmt.Errorf("error listing pipeline notes for %s: %w", p, err)
	}
	defer rows.Close()

	notes := make([]*fulfillment.Note, 0)
	for rows.Next() {
		n := &fulfillment.Note{}
		var month string
		if err := rows.Scan(&n.ID, &n.Content, &month, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning pipeline note: %w", err)
		}
		if n.SourceMonth, err = day.ParsePeriod(month); err != nil {
			return nil, fmt.Errorf("pipeline note %s: %w", n.ID, err)
		}
		notes = append(notes, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pipeline notes: %w", err)
	}
	return notes, nil
}

func (r *PostgresFulfillmentNoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fulfillment_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting pipeline note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fulfillment.ErrNoteNotFound
	}
	return nil
}

var _ fulfillment.NoteRepository = (*PostgresFulfillmentNoteRepository)(nil)
