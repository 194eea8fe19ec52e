package domain

import (
	"strings"
	"time"
)

const (
	dueOnLayout    = "2006-01-02"
	dueMonthLayout = "2006-01"
)

// Accepted due_date layouts. MM/DD/YYYY is what existing clients send.
var dueDateLayouts = []string{"01/02/2006", dueOnLayout, time.RFC3339}

// ParseDueDate parses a caller supplied due date and returns its UTC day.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Day(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DueOn formats the sortable day key of the due-date index.
func DueOn(t time.Time) string { return t.UTC().Format(dueOnLayout) }

// DueMonth formats the partition key of the due-date index.
func DueMonth(t time.Time) string { return t.UTC().Format(dueMonthLayout) }

// Window is an inclusive range of days.
type Window struct {
	From time.Time
	To   time.Time
}

// LookaheadWindow returns [today, today+days] for now.
func LookaheadWindow(now time.Time, days int) Window {
	from := Day(now)
	return Window{From: from, To: from.AddDate(0, 0, days)}
}

// Contains reports whether day d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(w.From) && !d.After(w.To)
}

// Months lists the due_month buckets the window touches, in order.
func (w Window) Months() []string {
	var months []string
	cur := time.Date(w.From.Year(), w.From.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(w.To) {
		months = append(months, DueMonth(cur))
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// SetDue fills DueOn and DueMonth from DueDate. Unparseable dates clear them.
func (t *Task) SetDue() error {
	d, err := ParseDueDate(t.DueDate)
	if err != nil {
		t.DueOn, t.DueMonth = "", ""
		return err
	}
	t.DueOn, t.DueMonth = DueOn(d), DueMonth(d)
	return nil
}
