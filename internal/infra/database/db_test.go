package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/fulfillment"
)

func TestWhereClause(t *testing.T) {
	where, args := whereClause(fulfillment.Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = whereClause(fulfillment.Filter{
		SourceMonth: day.Period{Year: 2026, Month: time.February},
		Statuses:    []fulfillment.Status{fulfillment.StatusWaiting, fulfillment.StatusReminderSent},
		ShopID:      3,
	})
	assert.Equal(t, " WHERE source_month = $1 AND status = ANY($2) AND shop_id = $3", where)
	assert.Equal(t, []any{"2026-02", pq.Array([]string{"waiting", "reminder_sent"}), 3}, args)

	where, args = whereClause(fulfillment.Filter{ShopID: 1})
	assert.Equal(t, " WHERE shop_id = $1", where)
	assert.Equal(t, []any{1}, args)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "fulfillment_order_id_key"}

	assert.True(t, isUniqueViolation(dup, "fulfillment_order_id_key"))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup), ""))
	assert.False(t, isUniqueViolation(dup, "orders_pkey"))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}, ""))
	assert.False(t, isUniqueViolation(errors.New("unique constraint"), ""))
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"orders", "fulfillment", "reminders", "calendar_notes", "fulfillment_notes"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, schemaSQL, "CONSTRAINT fulfillment_order_id_key UNIQUE (order_id)")
}
