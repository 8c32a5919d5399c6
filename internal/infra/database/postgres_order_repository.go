package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/order"
)

type PostgresOrderRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	query := `SELECT id, shop_id, customer_name, total, order_date, status, created_at
              FROM orders WHERE id = $1`
	o := &order.Order{}
	var date time.Time
	var status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.ShopID, &o.CustomerName, &o.Total, &date, &status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("error getting order by ID: %w", err)
	}
	o.Date = day.Of(date)
	o.Status = order.Status(status)
	return o, nil
}

var _ order.Repository = (*PostgresOrderRepository)(nil)
