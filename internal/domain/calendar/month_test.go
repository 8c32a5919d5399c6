package calendar

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/reminder"
)

func ids(rs []reminder.Reminder) []string {
	out := []string{}
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestBuild_ActiveSetsPerDay(t *testing.T) {
	q := Query{
		Year:  2024,
		Month: time.April,
		Today: day.MustParse("2024-04-10"),
		Reminders: []reminder.Reminder{
			{ID: "monthly", Date: day.MustParse("2024-03-15"), Recurring: reminder.RecurMonthly},
			{ID: "weekly", Date: day.MustParse("2024-04-05"), Recurring: reminder.RecurWeekly},
			{ID: "once", Date: day.MustParse("2024-04-02"), Recurring: reminder.RecurNone},
			{ID: "future-daily", Date: day.MustParse("2024-04-28"), Recurring: reminder.RecurDaily},
		},
		Notes: []reminder.Note{
			{ID: "n1", Date: day.MustParse("2024-04-15")},
			{ID: "n-other-month", Date: day.MustParse("2024-05-15")},
		},
	}

	m, err := Build(q)
	require.NoError(t, err)
	require.Len(t, m.Cells, 30)

	got := map[string][]string{}
	for _, c := range m.Busy() {
		got[c.Date.String()] = ids(c.Reminders)
	}
	want := map[string][]string{
		"2024-04-02": {"once"},
		"2024-04-05": {"weekly"},
		"2024-04-12": {"weekly"},
		"2024-04-15": {"monthly"},
		"2024-04-19": {"weekly"},
		"2024-04-26": {"weekly"},
		"2024-04-28": {"future-daily"},
		"2024-04-29": {"future-daily"},
		"2024-04-30": {"future-daily"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("active reminders mismatch (-want +got):\n%s", diff)
	}

	c, ok := m.Cell(day.MustParse("2024-04-15"))
	require.True(t, ok)
	require.Len(t, c.Notes, 1)
	assert.Equal(t, "n1", c.Notes[0].ID)

	today, _ := m.Cell(day.MustParse("2024-04-10"))
	assert.True(t, today.IsToday)
	assert.True(t, today.Empty())
}

func TestBuild_HasOverdue(t *testing.T) {
	q := Query{
		Year:  2024,
		Month: time.April,
		Today: day.MustParse("2024-04-10"),
		Reminders: []reminder.Reminder{
			{ID: "past-open", Date: day.MustParse("2024-04-02"), Recurring: reminder.RecurNone},
			{ID: "past-done", Date: day.MustParse("2024-04-03"), Recurring: reminder.RecurNone, Done: true},
			{ID: "daily", Date: day.MustParse("2024-04-01"), Recurring: reminder.RecurDaily},
			{ID: "future", Date: day.MustParse("2024-04-20"), Recurring: reminder.RecurNone},
		},
	}
	m, err := Build(q)
	require.NoError(t, err)

	overdue := []string{}
	for _, c := range m.Cells {
		if c.HasOverdue {
			overdue = append(overdue, c.Date.String())
		}
	}
	assert.Equal(t, []string{"2024-04-02"}, overdue)
}

func TestBuild_ShortMonthNoPanic(t *testing.T) {
	q := Query{
		Year:  2024,
		Month: time.February,
		Reminders: []reminder.Reminder{
			{ID: "eom", Date: day.MustParse("2024-01-31"), Recurring: reminder.RecurMonthly},
		},
	}
	m, err := Build(q)
	require.NoError(t, err)
	assert.Len(t, m.Cells, 29)
	assert.Empty(t, m.Busy())
}

func TestBuild_InvalidMonth(t *testing.T) {
	_, err := Build(Query{Year: 2024, Month: 13})
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestMonth_CellOutOfRange(t *testing.T) {
	m, err := Build(Query{Year: 2024, Month: time.April})
	require.NoError(t, err)
	_, ok := m.Cell(day.MustParse("2024-05-01"))
	assert.False(t, ok)
}

func TestMonth_LeadingBlanks(t *testing.T) {
	tests := map[string]struct {
		year  int
		month time.Month
		want  int
	}{
		"starts monday":   {2024, time.January, 0},
		"starts thursday": {2024, time.February, 3},
		"starts sunday":   {2024, time.September, 6},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := Build(Query{Year: tt.year, Month: tt.month})
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.LeadingBlanks())
		})
	}
}

func TestBuild_ConcurrentQueriesAgree(t *testing.T) {
	q := Query{
		Year:  2024,
		Month: time.March,
		Today: day.MustParse("2024-03-20"),
		Reminders: []reminder.Reminder{
			{ID: "w", Date: day.MustParse("2024-01-03"), Recurring: reminder.RecurWeekly},
			{ID: "m", Date: day.MustParse("2024-02-10"), Recurring: reminder.RecurMonthly},
		},
	}
	want, err := Build(q)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Month, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Build(q)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("concurrent build differs (-want +got):\n%s", diff)
		}
	}
}
