package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/fulfillment"
	"ecommify/internal/domain/order"
	"ecommify/internal/domain/reminder"
)

func nullEntry() *logrus.Entry {
	l, _ := logtest.NewNullLogger()
	return logrus.NewEntry(l)
}

func sqlTime(t time.Time) sql.NullTime { return sql.NullTime{Time: t, Valid: true} }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func newFakeOrders(list ...order.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]*order.Order{}}
	for _, o := range list {
		o := o
		f.orders[o.ID] = &o
	}
	return f
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) setStatus(id string, s order.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		o.Status = s
	}
}

func (f *fakeOrders) status(id string) order.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

type fakeRecords struct {
	mu     sync.Mutex
	orders *fakeOrders
	ids    []string
	byID   map[string]fulfillment.Record

	// beforeApply runs just before the guarded write, outside the lock.
	beforeApply func(id string)
	failApply   map[string]error
}

func newFakeRecords(orders *fakeOrders) *fakeRecords {
	return &fakeRecords{orders: orders, byID: map[string]fulfillment.Record{}, failApply: map[string]error{}}
}

// put stores rec as is, bypassing the pipeline rules.
func (f *fakeRecords) put(rec fulfillment.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[rec.ID]; !ok {
		f.ids = append(f.ids, rec.ID)
	}
	f.byID[rec.ID] = rec
}

func (f *fakeRecords) get(id string) fulfillment.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeRecords) Create(_ context.Context, rec *fulfillment.Record, orderStatus order.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.OrderID == rec.OrderID {
			return fulfillment.ErrAlreadyInPipeline
		}
	}
	f.ids = append(f.ids, rec.ID)
	f.byID[rec.ID] = *rec
	f.orders.setStatus(rec.OrderID, orderStatus)
	return nil
}

func (f *fakeRecords) GetByID(_ context.Context, id string) (*fulfillment.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, fulfillment.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRecords) List(_ context.Context, flt fulfillment.Filter) ([]*fulfillment.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fulfillment.Record
	for _, id := range f.ids {
		r, ok := f.byID[id]
		if !ok || !matches(r, flt) {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}

func matches(r fulfillment.Record, flt fulfillment.Filter) bool {
	if !flt.SourceMonth.IsZero() && r.SourceMonth != flt.SourceMonth {
		return false
	}
	if flt.ShopID != 0 && r.ShopID != flt.ShopID {
		return false
	}
	if len(flt.Statuses) == 0 {
		return true
	}
	for _, s := range flt.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

func (f *fakeRecords) ApplyTransition(_ context.Context, rec *fulfillment.Record, t fulfillment.Transition, orderStatus order.Status) error {
	if f.beforeApply != nil {
		f.beforeApply(rec.ID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failApply[rec.ID]; err != nil {
		return err
	}
	stored, ok := f.byID[rec.ID]
	if !ok {
		return fulfillment.ErrNotFound
	}
	if stored.Status != t.From {
		return fulfillment.ErrStale
	}
	cp := *rec
	cp.DaysUntilCheck, cp.AutoCheckReady = 0, false
	f.byID[rec.ID] = cp
	if orderStatus != "" {
		f.orders.setStatus(rec.OrderID, orderStatus)
	}
	return nil
}

func (f *fakeRecords) Delete(_ context.Context, id string, orderStatus order.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return fulfillment.ErrNotFound
	}
	delete(f.byID, id)
	f.orders.setStatus(r.OrderID, orderStatus)
	return nil
}

func (f *fakeRecords) CountByStatus(ctx context.Context, flt fulfillment.Filter) (map[fulfillment.Status]int, error) {
	list, _ := f.List(ctx, flt)
	out := map[fulfillment.Status]int{}
	for _, r := range list {
		out[r.Status]++
	}
	return out, nil
}

type fakeReminders struct {
	mu   sync.Mutex
	ids  []string
	byID map[string]reminder.Reminder
}

func newFakeReminders(rs ...reminder.Reminder) *fakeReminders {
	f := &fakeReminders{byID: map[string]reminder.Reminder{}}
	for _, r := range rs {
		f.ids = append(f.ids, r.ID)
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeReminders) Create(_ context.Context, r *reminder.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, r.ID)
	f.byID[r.ID] = *r
	return nil
}

func (f *fakeReminders) GetByID(_ context.Context, id string) (*reminder.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, reminder.ErrNotFound
	}
	return &r, nil
}

func (f *fakeReminders) Update(_ context.Context, r *reminder.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[r.ID]; !ok {
		return reminder.ErrNotFound
	}
	f.byID[r.ID] = *r
	return nil
}

func (f *fakeReminders) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return reminder.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeReminders) ListAll(_ context.Context) ([]*reminder.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*reminder.Reminder
	for _, id := range f.ids {
		if r, ok := f.byID[id]; ok {
			out = append(out, &r)
		}
	}
	return out, nil
}

type fakeNotes struct {
	mu    sync.Mutex
	notes []reminder.Note
}

func (f *fakeNotes) Create(_ context.Context, n *reminder.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, *n)
	return nil
}

func (f *fakeNotes) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return reminder.ErrNoteNotFound
}

func (f *fakeNotes) ListByPeriod(_ context.Context, p day.Period) ([]*reminder.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*reminder.Note
	for _, n := range f.notes {
		if p.Contains(n.Date) {
			n := n
			out = append(out, &n)
		}
	}
	return out, nil
}

type fakePipelineNotes struct {
	mu    sync.Mutex
	notes []fulfillment.Note
}

func (f *fakePipelineNotes) Create(_ context.Context, n *fulfillment.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, *n)
	return nil
}

func (f *fakePipelineNotes) ListByPeriod(_ context.Context, p day.Period) ([]*fulfillment.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fulfillment.Note
	for _, n := range f.notes {
		if n.SourceMonth == p {
			n := n
			out = append(out, &n)
		}
	}
	return out, nil
}

func (f *fakePipelineNotes) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return fulfillment.ErrNoteNotFound
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

func (f *fakeTelegram) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return fmt.Errorf("chat %d blocked the bot", chatID)
	}
	f.sent = append(f.sent, sentMessage{chatID, text})
	return nil
}
