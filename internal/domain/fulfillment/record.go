// internal/domain/fulfillment/record.go
package fulfillment

import (
	"database/sql"
	"time"

	"ecommify/internal/domain/day"
)

// Record is an order pushed into the fulfillment pipeline.
// Corresponds to the 'fulfillment' table.
type Record struct {
	ID               string
	OrderID          string
	ShopID           int
	CustomerName     string
	OrderTotal       float64
	Status           Status
	ExtraPayment     float64 // owed beyond the order total, 0 if none
	ExtraPaymentPaid bool    // meaningful once ExtraPayment > 0
	SourceMonth      day.Period
	Notes            string
	ReminderSentAt   sql.NullTime
	PaymentCheckedAt sql.NullTime
	ShippedAt        sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Scheduling hints filled in when the record is loaded; never stored.
	DaysUntilCheck int
	AutoCheckReady bool
}

// CheckSchedule computes how many days remain before a sent reminder's payment
// can be checked, given the grace period. Only records in reminder_sent with a
// known send time can become ready.
func CheckSchedule(rec Record, now time.Time, grace time.Duration) (daysUntil int, ready bool) {
	if rec.Status != StatusReminderSent || !rec.ReminderSentAt.Valid {
		return 0, false
	}
	elapsed := now.Sub(rec.ReminderSentAt.Time)
	if elapsed >= grace {
		return 0, true
	}
	remaining := grace - elapsed
	daysUntil = int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		daysUntil++
	}
	return daysUntil, false
}

// Annotate fills in the scheduling hints.
func (r *Record) Annotate(now time.Time, grace time.Duration) {
	r.DaysUntilCheck, r.AutoCheckReady = CheckSchedule(*r, now, grace)
}

// SelectWaiting returns the records of period p still in the waiting stage,
// the candidates of a bulk reminder run.
func SelectWaiting(records []Record, p day.Period) []Record {
	var out []Record
	for _, r := range records {
		if r.SourceMonth == p && r.Status == StatusWaiting {
			out = append(out, r)
		}
	}
	return out
}
