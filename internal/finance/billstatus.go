// Package finance holds the pure derivation rules applied to raw financial
// records: due-date classification for bills, portfolio aggregation for
// investments and period/chart summaries for transactions. Every function
// here is total and side-effect free; callers re-run them on each refresh
// and never persist the derived values.
package finance

import (
	"fmt"
	"time"
)

// Due-date classification statuses.
const (
	StatusOverdue = "OVERDUE"
	StatusDueSoon = "DUE_SOON"
	StatusNormal  = "NORMAL"
)

// DefaultDueSoonDays is the alert window used when the caller does not
// configure one. A bill due within this many days counts as DUE_SOON.
const DefaultDueSoonDays = 7

// DueClassification is the result of classifying a due date against a
// reference day.
type DueClassification struct {
	Status    string `json:"status"`
	DaysDelta int    `json:"daysDelta"`
	Text      string `json:"text"`
}

// ClassifyDueDate classifies dueDate against today. Both instants are
// truncated to calendar dates in UTC before differencing, so time-of-day
// and timezone noise never shift the result by a day. DaysDelta is the
// whole-day distance from today to dueDate and is negative for past dates.
//
// A bill due today (DaysDelta == 0) is DUE_SOON, not OVERDUE. dueSoonDays
// values below zero are treated as DefaultDueSoonDays.
func ClassifyDueDate(dueDate, today time.Time, dueSoonDays int) DueClassification {
	if dueSoonDays < 0 {
		dueSoonDays = DefaultDueSoonDays
	}
	delta := int(DateOnly(dueDate).Sub(DateOnly(today)).Hours() / 24)

	c := DueClassification{DaysDelta: delta}
	switch {
	case delta < 0:
		c.Status = StatusOverdue
		c.Text = fmt.Sprintf("Vencida há %d dias", -delta)
	case delta <= dueSoonDays:
		c.Status = StatusDueSoon
		c.Text = fmt.Sprintf("Vence em %d dias", delta)
	default:
		c.Status = StatusNormal
		c.Text = fmt.Sprintf("Vence em %d dias", delta)
	}
	return c
}

// DateOnly maps an instant to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
