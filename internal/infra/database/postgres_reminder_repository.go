package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/reminder"
)

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

func scanReminder(row rowScanner) (*reminder.Reminder, error) {
	rem := &reminder.Reminder{}
	var date time.Time
	var recurring string
	if err := row.Scan(&rem.ID, &rem.Title, &date, &rem.Time, &recurring, &rem.Done, &rem.CreatedBy, &rem.CreatedAt); err != nil {
		return nil, err
	}
	rem.Date = day.Of(date)
	rec, err := reminder.ParseRecurrence(recurring)
	if err != nil {
		return nil, fmt.Errorf("reminder %s: %w", rem.ID, err)
	}
	rem.Recurring = rec
	return rem, nil
}

func (r *PostgresReminderRepository) Create(ctx context.Context, rem *reminder.Reminder) error {
	query := `INSERT INTO reminders (id, title, date, "time", recurring, done, created_by, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, rem.ID, rem.Title, rem.Date.String(), rem.Time, string(rem.Recurring),
		rem.Done, rem.CreatedBy, rem.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating reminder: %w", err)
	}
	return nil
}

func (r *PostgresReminderRepository) GetByID(ctx context.Context, id string) (*reminder.Reminder, error) {
	query := `SELECT id, title, date, "time", recurring, done, created_by, created_at
              FROM reminders WHERE id = $1`
	rem, err := scanReminder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reminder.ErrNotFound
		}
		return nil, fmt.Errorf("error getting reminder by ID: %w", err)
	}
	return rem, nil
}

func (r *PostgresReminderRepository) Update(ctx context.Context, rem *reminder.Reminder) error {
	query := `UPDATE reminders
              SET title = $1, date = $2, "time" = $3, recurring = $4, done = $5
              WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, rem.Title, rem.Date.String(), rem.Time, string(rem.Recurring), rem.Done, rem.ID)
	if err != nil {
		return fmt.Errorf("error updating reminder: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return reminder.ErrNotFound
	}
	return nil
}

func (r *PostgresReminderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return reminder.ErrNotFound
	}
	return nil
}

func (r *PostgresReminderRepository) ListAll(ctx context.Context) ([]*reminder.Reminder, error) {
	query := `SELECT id, title, date, "time", recurring, done, created_by, created_at
              FROM reminders ORDER BY date, "time" NULLS FIRST, created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]*reminder.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return reminders, nil
}

type PostgresNoteRepository struct {
	db *sql.DB
}

func NewPostgresNoteRepository(db *sql.DB) *PostgresNoteRepository {
	return &PostgresNoteRepository{db: db}
}

func (r *PostgresNoteRepository) Create(ctx context.Context, n *reminder.Note) error {
	query := `INSERT INTO calendar_notes (id, content, date, created_by, created_at)
              VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.Content, n.Date.String(), n.CreatedBy, n.CreatedAt); err != nil {
		return fmt.Errorf("error creating note: %w", err)
	}
	return nil
}

func (r *PostgresNoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calendar_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return reminder.ErrNoteNotFound
	}
	return nil
}

func (r *PostgresNoteRepository) ListByPeriod(ctx context.Context, p day.Period) ([]*reminder.Note, error) {
	query := `SELECT id, content, date, created_by, created_at
              FROM calendar_notes WHERE date BETWEEN $1 AND $2 ORDER BY date, created_at`

	rows, err := r.db.QueryContext(ctx, query, p.First().String(), p.Last().String())
	if err != nil {
		return nil, fmt.Errorf("error listing notes for %s: %w", p, err)
	}
	defer rows.Close()

	notes := make([]*reminder.Note, 0)
	for rows.Next() {
		n := &reminder.Note{}
		var date time.Time
		if err := rows.Scan(&n.ID, &n.Content, &date, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning note: %w", err)
		}
		n.Date = day.Of(date)
		notes = append(notes, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return notes, nil
}

var (
	_ reminder.Repository     = (*PostgresReminderRepository)(nil)
	_ reminder.NoteRepository = (*PostgresNoteRepository)(nil)
)
