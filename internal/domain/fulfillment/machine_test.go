package fulfillment

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommify/internal/domain/day"
)

var now = time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func sqlTime(t time.Time) sql.NullTime { return sql.NullTime{Time: t, Valid: true} }

func TestNext_ForwardTable(t *testing.T) {
	tests := []struct {
		from   Status
		action Action
		ready  bool
		to     Status
		paid   *bool
		stamp  Stamp
	}{
		{StatusWaiting, ActionSendReminder, false, StatusReminderSent, nil, StampReminderSent},
		{StatusReminderSent, ActionCheckPayment, true, StatusCheckPayment, nil, StampPaymentChecked},
		{StatusCheckPayment, ActionMarkPaid, false, StatusToShip, boolPtr(true), StampNone},
		{StatusCheckPayment, ActionMarkUnpaid, false, StatusUnpaid, boolPtr(false), StampNone},
		{StatusUnpaid, ActionMarkPaid, false, StatusToShip, boolPtr(true), StampNone},
		{StatusToShip, ActionMarkShipped, false, StatusArchived, nil, StampShipped},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			rec := Record{ID: "r1", Status: tt.from, AutoCheckReady: tt.ready}
			tr, err := Next(rec, tt.action)
			require.NoError(t, err)
			assert.False(t, tr.Noop)
			assert.Equal(t, tt.from, tr.From)
			assert.Equal(t, tt.to, tr.To)
			assert.Equal(t, tt.paid, tr.ExtraPaymentPaid)
			assert.Equal(t, tt.stamp, tr.Stamp)
		})
	}
}

func TestNext_CheckPaymentRequiresReady(t *testing.T) {
	rec := Record{ID: "r1", Status: StatusReminderSent, AutoCheckReady: false}

	_, err := Next(rec, ActionCheckPayment)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "r1", te.RecordID)
	assert.Equal(t, StatusReminderSent, te.From)
	assert.Equal(t, ActionCheckPayment, te.Action)
	assert.Equal(t, StatusReminderSent, rec.Status, "record is left untouched")
}

func TestNext_MarkUnpaidScenario(t *testing.T) {
	rec := Record{Status: StatusCheckPayment, ExtraPayment: 50, ExtraPaymentPaid: true}
	tr, err := Next(rec, MarkPaid(false))
	require.NoError(t, err)

	got := tr.Apply(rec, now)
	assert.Equal(t, StatusUnpaid, got.Status)
	assert.False(t, got.ExtraPaymentPaid)
}

func TestNext_UndoChain(t *testing.T) {
	rec := Record{Status: StatusArchived}
	var visited []Status
	for {
		tr, err := Next(rec, ActionUndo)
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidTransition)
			break
		}
		rec = tr.Apply(rec, now)
		visited = append(visited, rec.Status)
	}
	assert.Equal(t, []Status{StatusToShip, StatusCheckPayment, StatusReminderSent, StatusWaiting}, visited)
}

func TestNext_UndoTable(t *testing.T) {
	want := map[Status]Status{
		StatusReminderSent: StatusWaiting,
		StatusCheckPayment: StatusReminderSent,
		StatusToShip:       StatusCheckPayment,
		StatusArchived:     StatusToShip,
		StatusUnpaid:       StatusCheckPayment,
	}
	for from, to := range want {
		tr, err := Next(Record{Status: from, ExtraPaymentPaid: true}, ActionUndo)
		require.NoError(t, err, "undo from %s", from)
		assert.Equal(t, to, tr.To)
		assert.Nil(t, tr.ExtraPaymentPaid, "undo touches status only")
		assert.Equal(t, StampNone, tr.Stamp)
	}

	_, err := Next(Record{Status: StatusWaiting}, ActionUndo)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, CanUndo(StatusWaiting))
}

func TestNext_UnpaidDoesNotUndoToToShip(t *testing.T) {
	tr, err := Next(Record{Status: StatusUnpaid}, ActionUndo)
	require.NoError(t, err)
	assert.Equal(t, StatusCheckPayment, tr.To)
}

func TestNext_RepeatedForwardActionIsNoop(t *testing.T) {
	tests := []struct {
		status Status
		action Action
	}{
		{StatusReminderSent, ActionSendReminder},
		{StatusCheckPayment, ActionCheckPayment},
		{StatusToShip, ActionMarkPaid},
		{StatusUnpaid, ActionMarkUnpaid},
		{StatusArchived, ActionMarkShipped},
	}
	for _, tt := range tests {
		rec := Record{Status: tt.status, ExtraPaymentPaid: true}
		tr, err := Next(rec, tt.action)
		require.NoError(t, err, "%s on %s", tt.action, tt.status)
		assert.True(t, tr.Noop)
		assert.Equal(t, rec, tr.Apply(rec, now), "noop leaves the record as is")
	}
}

func TestNext_NoSkippingForward(t *testing.T) {
	tests := []struct {
		status Status
		action Action
	}{
		{StatusWaiting, ActionCheckPayment},
		{StatusWaiting, ActionMarkPaid},
		{StatusWaiting, ActionMarkShipped},
		{StatusReminderSent, ActionMarkPaid},
		{StatusReminderSent, ActionMarkShipped},
		{StatusCheckPayment, ActionMarkShipped},
		{StatusUnpaid, ActionMarkShipped},
		{StatusArchived, ActionMarkPaid},
		{StatusToShip, ActionMarkUnpaid},
	}
	for _, tt := range tests {
		_, err := Next(Record{Status: tt.status, AutoCheckReady: true}, tt.action)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s on %s", tt.action, tt.status)
	}
}

func TestNext_UnknownStatusOrAction(t *testing.T) {
	_, err := Next(Record{Status: "lost"}, ActionSendReminder)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Next(Record{Status: StatusWaiting}, Action("teleport"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_ApplySetsStampsTogether(t *testing.T) {
	rec := Record{Status: StatusWaiting}

	tr, err := Next(rec, ActionSendReminder)
	require.NoError(t, err)
	rec = tr.Apply(rec, now)
	assert.Equal(t, StatusReminderSent, rec.Status)
	assert.True(t, rec.ReminderSentAt.Valid)
	assert.Equal(t, now, rec.ReminderSentAt.Time)
	assert.Equal(t, now, rec.UpdatedAt)

	rec.AutoCheckReady = true
	tr, err = Next(rec, ActionCheckPayment)
	require.NoError(t, err)
	rec = tr.Apply(rec, now.Add(time.Hour))
	assert.True(t, rec.PaymentCheckedAt.Valid)

	tr, err = Next(rec, ActionMarkPaid)
	require.NoError(t, err)
	rec = tr.Apply(rec, now)
	assert.True(t, rec.ExtraPaymentPaid)
	assert.False(t, rec.ShippedAt.Valid)

	tr, err = Next(rec, ActionMarkShipped)
	require.NoError(t, err)
	rec = tr.Apply(rec, now)
	assert.Equal(t, StatusArchived, rec.Status)
	assert.True(t, rec.ShippedAt.Valid)
}

func TestAvailableActions(t *testing.T) {
	tests := []struct {
		rec  Record
		want []Action
	}{
		{Record{Status: StatusWaiting}, []Action{ActionSendReminder}},
		{Record{Status: StatusReminderSent}, []Action{ActionUndo}},
		{Record{Status: StatusReminderSent, AutoCheckReady: true}, []Action{ActionCheckPayment, ActionUndo}},
		{Record{Status: StatusCheckPayment}, []Action{ActionMarkPaid, ActionMarkUnpaid, ActionUndo}},
		{Record{Status: StatusUnpaid}, []Action{ActionMarkPaid, ActionUndo}},
		{Record{Status: StatusToShip}, []Action{ActionMarkShipped, ActionUndo}},
		{Record{Status: StatusArchived}, []Action{ActionUndo}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AvailableActions(tt.rec), "status %s ready=%v", tt.rec.Status, tt.rec.AutoCheckReady)
	}
}

func TestCheckSchedule(t *testing.T) {
	grace := 7 * 24 * time.Hour
	sent := func(ago time.Duration) Record {
		return Record{Status: StatusReminderSent, ReminderSentAt: sqlTime(now.Add(-ago))}
	}

	days, ready := CheckSchedule(sent(8*24*time.Hour), now, grace)
	assert.True(t, ready)
	assert.Equal(t, 0, days)

	days, ready = CheckSchedule(sent(7*24*time.Hour), now, grace)
	assert.True(t, ready)
	assert.Equal(t, 0, days)

	days, ready = CheckSchedule(sent(2*24*time.Hour), now, grace)
	assert.False(t, ready)
	assert.Equal(t, 5, days)

	days, ready = CheckSchedule(sent(36*time.Hour), now, grace)
	assert.False(t, ready)
	assert.Equal(t, 6, days, "partial days round up")

	_, ready = CheckSchedule(Record{Status: StatusReminderSent}, now, grace)
	assert.False(t, ready, "no send time, never ready")

	_, ready = CheckSchedule(Record{Status: StatusWaiting, ReminderSentAt: sqlTime(now.Add(-30 * 24 * time.Hour))}, now, grace)
	assert.False(t, ready)
}

func TestSelectWaiting(t *testing.T) {
	feb := day.Period{Year: 2026, Month: time.February}
	jan := feb.Prev()
	records := []Record{
		{ID: "1", SourceMonth: feb, Status: StatusWaiting},
		{ID: "2", SourceMonth: feb, Status: StatusReminderSent},
		{ID: "3", SourceMonth: jan, Status: StatusWaiting},
		{ID: "4", SourceMonth: feb, Status: StatusWaiting},
	}
	got := SelectWaiting(records, feb)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
}

func TestParseStatusAndAction(t *testing.T) {
	for _, s := range Stages() {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("shipped")
	assert.Error(t, err)

	a, err := ParseAction("mark_unpaid")
	require.NoError(t, err)
	assert.Equal(t, ActionMarkUnpaid, a)
	_, err = ParseAction("redo")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, ActionMarkPaid, MarkPaid(true))
	assert.Equal(t, ActionMarkUnpaid, MarkPaid(false))
}
