package finance

import (
	"testing"
	"time"
)

func day(offset int) time.Time {
	base := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestClassifyDueDateToday(t *testing.T) {
	c := ClassifyDueDate(day(0), day(0), DefaultDueSoonDays)
	if c.DaysDelta != 0 {
		t.Errorf("expected daysDelta 0, got %d", c.DaysDelta)
	}
	if c.Status != StatusDueSoon {
		t.Errorf("bill due today must be DUE_SOON, got %s", c.Status)
	}
}

func TestClassifyDueDateOverdue(t *testing.T) {
	for _, offset := range []int{-1, -3, -30, -365} {
		c := ClassifyDueDate(day(offset), day(0), DefaultDueSoonDays)
		if c.Status != StatusOverdue {
			t.Errorf("offset %d: expected OVERDUE, got %s", offset, c.Status)
		}
		if c.DaysDelta != offset {
			t.Errorf("offset %d: expected daysDelta %d, got %d", offset, offset, c.DaysDelta)
		}
	}
}

func TestClassifyDueDateThresholds(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"three days overdue", -3, StatusOverdue},
		{"due today", 0, StatusDueSoon},
		{"due in five days", 5, StatusDueSoon},
		{"at the window edge", 7, StatusDueSoon},
		{"just past the window", 8, StatusNormal},
		{"due in ten days", 10, StatusNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ClassifyDueDate(day(tt.offset), day(0), 7)
			if c.Status != tt.want {
				t.Errorf("offset %d: expected %s, got %s", tt.offset, tt.want, c.Status)
			}
		})
	}
}

func TestClassifyDueDateCustomWindow(t *testing.T) {
	if c := ClassifyDueDate(day(5), day(0), 3); c.Status != StatusNormal {
		t.Errorf("expected NORMAL with window 3, got %s", c.Status)
	}
	if c := ClassifyDueDate(day(5), day(0), -1); c.Status != StatusDueSoon {
		t.Errorf("negative window must fall back to the default, got %s", c.Status)
	}
}

func TestClassifyDueDateIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2026, time.March, 15, 23, 50, 0, 0, time.UTC)
	due := time.Date(2026, time.March, 16, 0, 5, 0, 0, time.UTC)
	c := ClassifyDueDate(due, today, 7)
	if c.DaysDelta != 1 {
		t.Errorf("time-of-day must not shift the delta: expected 1, got %d", c.DaysDelta)
	}

	// same calendar day in different zones
	sp := time.FixedZone("America/Sao_Paulo", -3*3600)
	c = ClassifyDueDate(
		time.Date(2026, time.March, 15, 22, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 15, 8, 0, 0, 0, sp),
		7,
	)
	if c.DaysDelta != 0 {
		t.Errorf("expected daysDelta 0 across zones, got %d", c.DaysDelta)
	}
}

func TestClassifyDueDateText(t *testing.T) {
	if got := ClassifyDueDate(day(-4), day(0), 7).Text; got != "Vencida há 4 dias" {
		t.Errorf("unexpected overdue text: %q", got)
	}
	if got := ClassifyDueDate(day(2), day(0), 7).Text; got != "Vence em 2 dias" {
		t.Errorf("unexpected due-soon text: %q", got)
	}
}
