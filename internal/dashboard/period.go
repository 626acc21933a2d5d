package dashboard

import "time"

// KST is the business timezone; all reporting periods are computed against
// it regardless of the server's local zone.
var KST = time.FixedZone("KST", 9*60*60)

// MonthRange returns the first instant of t's month and of the next month
// in KST.
func MonthRange(t time.Time) (from, to time.Time) {
	t = t.In(KST)
	from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, KST)
	to = from.AddDate(0, 1, 0)
	return from, to
}

// WeekRange returns the Monday 00:00 of t's week and the following Monday
// in KST.
func WeekRange(t time.Time) (from, to time.Time) {
	t = t.In(KST)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, KST)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	from = day.AddDate(0, 0, -offset)
	to = from.AddDate(0, 0, 7)
	return from, to
}
