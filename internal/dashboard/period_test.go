package dashboard

import (
	"testing"
	"time"
)

func TestMonthRangeKST(t *testing.T) {
	// 2026-02-01 05:00 KST is still 2026-01-31 20:00 UTC.
	utc := time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC)
	from, to := MonthRange(utc)
	if from.Month() != time.February || from.Day() != 1 {
		t.Fatalf("expected KST February start, got %s", from)
	}
	if to.Month() != time.March || to.Day() != 1 {
		t.Fatalf("expected March start, got %s", to)
	}
	if from.Hour() != 0 || from.Location() != KST {
		t.Fatalf("expected KST midnight, got %s", from)
	}
}

func TestWeekRangeStartsMonday(t *testing.T) {
	// 2026-03-04 is a Wednesday.
	wed := time.Date(2026, 3, 4, 15, 0, 0, 0, KST)
	from, to := WeekRange(wed)
	if from.Weekday() != time.Monday {
		t.Fatalf("expected Monday start, got %s", from.Weekday())
	}
	if from.Day() != 2 {
		t.Fatalf("expected 2026-03-02, got %s", from)
	}
	if !to.Equal(from.AddDate(0, 0, 7)) {
		t.Fatalf("expected 7-day window")
	}

	mon := time.Date(2026, 3, 2, 0, 0, 0, 0, KST)
	from2, _ := WeekRange(mon)
	if !from2.Equal(from) {
		t.Fatalf("Monday itself should anchor its own week")
	}
}
