package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/fulfillment"
	"ecommify/internal/domain/order"
)

const fulfillmentColumns = `id, order_id, shop_id, customer_name, order_total, status, extra_payment,
       extra_payment_paid, source_month, notes, reminder_sent_at, payment_checked_at, shipped_at,
       created_at, updated_at`

type PostgresFulfillmentRepository struct {
	db *sql.DB
}

func NewPostgresFulfillmentRepository(db *sql.DB) *PostgresFulfillmentRepository {
	return &PostgresFulfillmentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*fulfillment.Record, error) {
	rec := &fulfillment.Record{}
	var status, month string
	err := row.Scan(&rec.ID, &rec.OrderID, &rec.ShopID, &rec.CustomerName, &rec.OrderTotal, &status,
		&rec.ExtraPayment, &rec.ExtraPaymentPaid, &month, &rec.Notes, &rec.ReminderSentAt,
		&rec.PaymentCheckedAt, &rec.ShippedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = fulfillment.Status(status)
	if rec.SourceMonth, err = day.ParsePeriod(month); err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return rec, nil
}

// whereClause renders f as a WHERE clause with positional arguments starting at $1.
func whereClause(f fulfillment.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.SourceMonth.IsZero() {
		add("source_month = $%d", f.SourceMonth.String())
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}
	if f.ShopID != 0 {
		add("shop_id = $%d", f.ShopID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresFulfillmentRepository) Create(ctx context.Context, rec *fulfillment.Record, orderStatus order.Status) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for fulfillment create: %w", err)
	}
	defer txn.Rollback()

	query := `INSERT INTO fulfillment (id, order_id, shop_id, customer_name, order_total, status,
                  extra_payment, extra_payment_paid, source_month, notes, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = txn.ExecContext(ctx, query, rec.ID, rec.OrderID, rec.ShopID, rec.CustomerName, rec.OrderTotal,
		string(rec.Status), rec.ExtraPayment, rec.ExtraPaymentPaid, rec.SourceMonth.String(), rec.Notes,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "fulfillment_order_id_key") {
			return fulfillment.ErrAlreadyInPipeline
		}
		return fmt.Errorf("error creating fulfillment record: %w", err)
	}

	if err := setOrderStatus(ctx, txn, rec.OrderID, orderStatus); err != nil {
		return err
	}
	return txn.Commit()
}

func (r *PostgresFulfillmentRepository) GetByID(ctx context.Context, id string) (*fulfillment.Record, error) {
	query := `SELECT ` + fulfillmentColumns + ` FROM fulfillment WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fulfillment.ErrNotFound
		}
		return nil, fmt.Errorf("error getting fulfillment record by ID: %w", err)
	}
	return rec, nil
}

func (r *PostgresFulfillmentRepository) List(ctx context.Context, f fulfillment.Filter) ([]*fulfillment.Record, error) {
	where, args := whereClause(f)
	query := `SELECT ` + fulfillmentColumns + ` FROM fulfillment` + where + ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing fulfillment records: %w", err)
	}
	defer rows.Close()

	records := make([]*fulfillment.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning fulfillment record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fulfillment records: %w", err)
	}
	return records, nil
}

// ApplyTransition writes the whole transition in one statement guarded on the
// expected current status, then the order side effect, in a single transaction.
func (r *PostgresFulfillmentRepository) ApplyTransition(ctx context.Context, rec *fulfillment.Record, t fulfillment.Transition, orderStatus order.Status) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for transition: %w", err)
	}
	defer txn.Rollback()

	query := `UPDATE fulfillment
              SET status = $1, extra_payment_paid = $2, reminder_sent_at = $3,
                  payment_checked_at = $4, shipped_at = $5, updated_at = $6
              WHERE id = $7 AND status = $8`
	res, err := txn.ExecContext(ctx, query, string(rec.Status), rec.ExtraPaymentPaid, rec.ReminderSentAt,
		rec.PaymentCheckedAt, rec.ShippedAt, rec.UpdatedAt, rec.ID, string(t.From))
	if err != nil {
		return fmt.Errorf("error applying %s to fulfillment record %s: %w", t.Action, rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := txn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM fulfillment WHERE id = $1)`, rec.ID).Scan(&exists); err != nil {
			return fmt.Errorf("error checking fulfillment record %s: %w", rec.ID, err)
		}
		if !exists {
			return fulfillment.ErrNotFound
		}
		return fulfillment.ErrStale
	}

	if orderStatus != "" {
		if err := setOrderStatus(ctx, txn, rec.OrderID, orderStatus); err != nil {
			return err
		}
	}
	return txn.Commit()
}

func (r *PostgresFulfillmentRepository) Delete(ctx context.Context, id string, orderStatus order.Status) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for fulfillment delete: %w", err)
	}
	defer txn.Rollback()

	var orderID string
	err = txn.QueryRowContext(ctx, `DELETE FROM fulfillment WHERE id = $1 RETURNING order_id`, id).Scan(&orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fulfillment.ErrNotFound
		}
		return fmt.Errorf("error deleting fulfillment record: %w", err)
	}
	if err := setOrderStatus(ctx, txn, orderID, orderStatus); err != nil {
		return err
	}
	return txn.Commit()
}

func (r *PostgresFulfillmentRepository) CountByStatus(ctx context.Context, f fulfillment.Filter) (map[fulfillment.Status]int, error) {
	where, args := whereClause(f)
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM fulfillment`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting fulfillment records: %w", err)
	}
	defer rows.Close()

	counts := make(map[fulfillment.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning fulfillment count: %w", err)
		}
		counts[fulfillment.Status(status)] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fulfillment counts: %w", err)
	}
	return counts, nil
}

var _ fulfillment.Repository = (*PostgresFulfillmentRepository)(nil)
