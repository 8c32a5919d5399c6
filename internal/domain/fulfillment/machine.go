// internal/domain/fulfillment/machine.go
package fulfillment

import (
	"database/sql"
	"time"
)

type edge struct {
	from   Status
	action Action
}

type step struct {
	to    Status
	paid  *bool // paired extra_payment_paid update, nil when untouched
	stamp Stamp
}

var (
	paidTrue  = true
	paidFalse = false
)

var forward = map[edge]step{
	{StatusWaiting, ActionSendReminder}:      {to: StatusReminderSent, stamp: StampReminderSent},
	{StatusReminderSent, ActionCheckPayment}: {to: StatusCheckPayment, stamp: StampPaymentChecked},
	{StatusCheckPayment, ActionMarkPaid}:     {to: StatusToShip, paid: &paidTrue},
	{StatusCheckPayment, ActionMarkUnpaid}:   {to: StatusUnpaid, paid: &paidFalse},
	{StatusUnpaid, ActionMarkPaid}:           {to: StatusToShip, paid: &paidTrue},
	{StatusToShip, ActionMarkShipped}:        {to: StatusArchived, stamp: StampShipped},
}

// Single-step back-edges. unpaid returns to check_payment; leaving unpaid for
// to_ship happens only through mark_paid.
var undo = map[Status]Status{
	StatusReminderSent: StatusWaiting,
	StatusCheckPayment: StatusReminderSent,
	StatusToShip:       StatusCheckPayment,
	StatusArchived:     StatusToShip,
	StatusUnpaid:       StatusCheckPayment,
}

// Transition is the outcome of a legal action: the next status and the fields
// that must be written together with it.
type Transition struct {
	From             Status
	To               Status
	Action           Action
	ExtraPaymentPaid *bool
	Stamp            Stamp
	// Noop is set when the record already sits where the action leads;
	// nothing needs to be written.
	Noop bool
}

// Next decides the legal outcome of applying action to rec. It does not
// modify rec.
func Next(rec Record, action Action) (Transition, error) {
	if !rec.Status.Valid() {
		return Transition{}, reject(rec, action, ErrInvalidTransition)
	}

	if action == ActionUndo {
		to, ok := undo[rec.Status]
		if !ok {
			return Transition{}, reject(rec, action, ErrInvalidTransition)
		}
		return Transition{From: rec.Status, To: to, Action: action}, nil
	}

	if s, ok := forward[edge{rec.Status, action}]; ok {
		if action == ActionCheckPayment && !rec.AutoCheckReady {
			return Transition{}, reject(rec, action, ErrPreconditionFailed)
		}
		return Transition{From: rec.Status, To: s.to, Action: action, ExtraPaymentPaid: s.paid, Stamp: s.stamp}, nil
	}

	if alreadyApplied(rec.Status, action) {
		return Transition{From: rec.Status, To: rec.Status, Action: action, Noop: true}, nil
	}
	return Transition{}, reject(rec, action, ErrInvalidTransition)
}

// alreadyApplied reports whether status is the target of action along some
// forward edge, meaning a repeated request has nothing left to do.
func alreadyApplied(status Status, action Action) bool {
	for e, s := range forward {
		if e.action == action && s.to == status {
			return true
		}
	}
	return false
}

func reject(rec Record, action Action, err error) error {
	return &TransitionError{RecordID: rec.ID, From: rec.Status, Action: action, Err: err}
}

// Apply returns rec with the transition's status and paired field updates
// written together.
func (t Transition) Apply(rec Record, now time.Time) Record {
	if t.Noop {
		return rec
	}
	rec.Status = t.To
	if t.ExtraPaymentPaid != nil {
		rec.ExtraPaymentPaid = *t.ExtraPaymentPaid
	}
	stamp := sql.NullTime{Time: now, Valid: true}
	switch t.Stamp {
	case StampReminderSent:
		rec.ReminderSentAt = stamp
	case StampPaymentChecked:
		rec.PaymentCheckedAt = stamp
	case StampShipped:
		rec.ShippedAt = stamp
	}
	rec.UpdatedAt = now
	return rec
}

// AvailableActions lists the actions that would succeed on rec without being
// no-ops, in display order.
func AvailableActions(rec Record) []Action {
	var out []Action
	for _, a := range Actions() {
		t, err := Next(rec, a)
		if err == nil && !t.Noop {
			out = append(out, a)
		}
	}
	return out
}

// CanUndo reports whether the status has a back-edge.
func CanUndo(s Status) bool {
	_, ok := undo[s]
	return ok
}
