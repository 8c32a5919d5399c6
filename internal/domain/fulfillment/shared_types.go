// internal/domain/fulfillment/shared_types.go
package fulfillment

import "fmt"

// Status is the pipeline stage of a fulfillment record.
type Status string

const (
	StatusWaiting      Status = "waiting" // initial
	StatusReminderSent Status = "reminder_sent"
	StatusCheckPayment Status = "check_payment"
	StatusToShip       Status = "to_ship"
	StatusUnpaid       Status = "unpaid"
	StatusArchived     Status = "archived" // terminal, reached only from to_ship
)

// Stages returns every status in pipeline order.
func Stages() []Status {
	return []Status{StatusWaiting, StatusReminderSent, StatusCheckPayment, StatusToShip, StatusUnpaid, StatusArchived}
}

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusReminderSent, StatusCheckPayment, StatusToShip, StatusUnpaid, StatusArchived:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown fulfillment status %q", s)
	}
	return st, nil
}

// Action is an operator request against a record.
type Action string

const (
	ActionSendReminder Action = "send_reminder"
	ActionCheckPayment Action = "check_payment"
	ActionMarkPaid     Action = "mark_paid"   // markPaid(true)
	ActionMarkUnpaid   Action = "mark_unpaid" // markPaid(false)
	ActionMarkShipped  Action = "mark_shipped"
	ActionUndo         Action = "undo"
)

// Actions lists every action, forward ones first.
func Actions() []Action {
	return []Action{ActionSendReminder, ActionCheckPayment, ActionMarkPaid, ActionMarkUnpaid, ActionMarkShipped, ActionUndo}
}

func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, s)
}

// MarkPaid maps the paid flag of a payment check onto its action.
func MarkPaid(paid bool) Action {
	if paid {
		return ActionMarkPaid
	}
	return ActionMarkUnpaid
}

// Stamp names the timestamp field a transition sets.
type Stamp string

const (
	StampNone           Stamp = ""
	StampReminderSent   Stamp = "reminder_sent_at"
	StampPaymentChecked Stamp = "payment_checked_at"
	StampShipped        Stamp = "shipped_at"
)
