package qualification

import (
	"fmt"
	"time"
)

// Quarter is a three calendar month window [Start, End).
type Quarter struct {
	Year   int
	Number int
	Start  Date
	End    Date
}

func NewQuarter(year, number int) (Quarter, error) {
	if number < 1 || number > 4 {
		return Quarter{}, fmt.Errorf("invalid quarter %d: must be 1-4", number)
	}
	start := NewDate(year, time.Month(3*(number-1)+1), 1)
	end := DateOf(start.Time().AddDate(0, 3, 0))
	return Quarter{Year: year, Number: number, Start: start, End: end}, nil
}

// Dates lists every calendar day of the quarter in order.
func (q Quarter) Dates() []Date {
	var dates []Date
	for d := q.Start; d.Before(q.End); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

func (q Quarter) String() string {
	return fmt.Sprintf("%d Q%d", q.Year, q.Number)
}

// ScheduledQuarter reports which quarter's reminder is sent on day d, if any.
// Reminders go out on the first day of the month preceding each quarter.
func ScheduledQuarter(d Date) (Quarter, bool) {
	if d.Day() != 1 {
		return Quarter{}, false
	}
	var q Quarter
	switch d.Month() {
	case time.December:
		q, _ = NewQuarter(d.Year()+1, 1)
	case time.March:
		q, _ = NewQuarter(d.Year(), 2)
	case time.June:
		q, _ = NewQuarter(d.Year(), 3)
	case time.September:
		q, _ = NewQuarter(d.Year(), 4)
	default:
		return Quarter{}, false
	}
	return q, true
}
