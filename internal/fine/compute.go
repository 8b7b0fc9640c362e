package fine

import (
	"math"
	"time"
)

// DailyRate is the per-day overdue charge, in currency units.
const DailyRate = 5

// Compute calculates the overdue fine for a return. A return on or before
// the due date costs nothing; after that each started day counts in full
// (partial days round up).
func Compute(dueDate, actualReturnDate time.Time) (daysOverdue int, amount float64) {
	if !actualReturnDate.After(dueDate) {
		return 0, 0
	}
	daysOverdue = int(math.Ceil(actualReturnDate.Sub(dueDate).Hours() / 24))
	return daysOverdue, float64(daysOverdue) * DailyRate
}

// Projection is the would-be fine for an issue that is still open past its
// due date. Nothing is persisted; the real fine is created at return time.
type Projection struct {
	DaysOverdue int     `json:"daysOverdue"`
	FineAmount  float64 `json:"fineAmount"`
}

// Project returns the fine that would accrue if the item were returned now.
func Project(dueDate, now time.Time) Projection {
	days, amount := Compute(dueDate, now)
	return Projection{DaysOverdue: days, FineAmount: amount}
}
