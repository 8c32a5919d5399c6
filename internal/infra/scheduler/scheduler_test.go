package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeNotifier struct {
	mu          sync.Mutex
	fulfillment int
	calendar    int
	err         error
}

func (f *fakeNotifier) SendFulfillmentDigest(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fulfillment++
	return f.err
}

func (f *fakeNotifier) SendCalendarDigest(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calendar++
	return f.err
}

func newTestScheduler(n *fakeNotifier, specCheck, specDigest string) (*NotificationScheduler, *logtest.Hook) {
	l, hook := logtest.NewNullLogger()
	return NewNotificationScheduler(n, logrus.NewEntry(l), time.UTC, specCheck, specDigest), hook
}

func TestScheduler_StartStopDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _ := newTestScheduler(&fakeNotifier{}, "0 10 15 * *", "0 9 * * *")
	require.NoError(t, s.Start())
	assert.Len(t, s.cronEngine.Entries(), 2)
	s.Stop()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _ := newTestScheduler(&fakeNotifier{}, "every day", "0 9 * * *")
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fulfillment check")

	s, _ = newTestScheduler(&fakeNotifier{}, "0 10 15 * *", "61 * * * *")
	assert.Error(t, s.Start())
}

func TestScheduler_RunJob(t *testing.T) {
	n := &fakeNotifier{}
	s, hook := newTestScheduler(n, "0 10 15 * *", "0 9 * * *")

	s.runJob("fulfillment_check", n.SendFulfillmentDigest)
	s.runJob("daily_digest", n.SendCalendarDigest)
	assert.Equal(t, 1, n.fulfillment)
	assert.Equal(t, 1, n.calendar)
	assert.Equal(t, "Cron job finished.", hook.LastEntry().Message)

	n.err = errors.New("telegram is down")
	s.runJob("daily_digest", n.SendCalendarDigest)
	last := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "daily_digest", last.Data["job"])
}

func TestScheduler_RunJobHasDeadline(t *testing.T) {
	s, _ := newTestScheduler(&fakeNotifier{}, "", "")
	s.jobTimeout = time.Minute

	var deadline time.Time
	var ok bool
	s.runJob("deadline_check", func(ctx context.Context) error {
		deadline, ok = ctx.Deadline()
		return nil
	})
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}
