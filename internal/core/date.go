package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Day is a calendar day kept as "YYYY-MM-DD". It is never interpreted
// through a timezone; comparisons of well-formed values are lexicographic.
type Day string

// MonthOverflow decides what happens when adding months lands on a day the
// target month does not have (e.g. Jan 31 + 1 month).
type MonthOverflow string

const (
	// ClampToMonthEnd moves the day back to the last day of the target month.
	ClampToMonthEnd MonthOverflow = "clamp"
	// Rollover carries the excess days into the next month, as time.AddDate does.
	Rollover MonthOverflow = "rollover"
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
)

func (p MonthOverflow) IsValid() bool {
	return p == ClampToMonthEnd || p == Rollover
}

// NewDay formats year, month and day as a Day without normalizing them.
func NewDay(year, month, day int) Day {
	return Day(fmt.Sprintf("%04d-%02d-%02d", year, month, day))
}

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), int(t.Month()), t.Day())
}

// IsEmpty reports whether no date was given.
func (d Day) IsEmpty() bool {
	return strings.TrimSpace(string(d)) == ""
}

func (d Day) String() string {
	return string(d)
}

// Parts splits the day into its numeric fields. ok is false for anything
// that is not a real calendar day in YYYY-MM-DD form.
func (d Day) Parts() (year, month, day int, ok bool) {
	s := strings.TrimSpace(string(d))
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return 0, 0, 0, false
	}
	for i := 0; i < len(s); i++ {
		if i != 4 && i != 7 && (s[i] < '0' || s[i] > '9') {
			return 0, 0, 0, false
		}
	}
	y, err := strconv.Atoi(s[0:4])
	if err != nil {
		return 0, 0, 0, false
	}
	m, err := strconv.Atoi(s[5:7])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, 0, false
	}
	dd, err := strconv.Atoi(s[8:10])
	if err != nil || dd < 1 || dd > DaysIn(y, m) {
		return 0, 0, 0, false
	}
	return y, m, dd, true
}

// ParseDay splits s into year, month and day. It never panics.
func ParseDay(s string) (year, month, day int, ok bool) {
	return Day(s).Parts()
}

// Valid reports whether the day is well formed.
func (d Day) Valid() bool {
	_, _, _, ok := d.Parts()
	return ok
}

func (d Day) Validate() error {
	if d.IsEmpty() {
		return fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return nil
}

// YearMonth returns the year and month of a well-formed day.
func (d Day) YearMonth() (year, month int, ok bool) {
	y, m, _, ok := d.Parts()
	return y, m, ok
}

// Before compares two days as strings; both must be zero-padded.
func (d Day) Before(other Day) bool {
	return strings.TrimSpace(string(d)) < strings.TrimSpace(string(other))
}

// AddMonths advances the day by n calendar months using the given policy.
func (d Day) AddMonths(n int, policy MonthOverflow) (Day, error) {
	y, m, dd, ok := d.Parts()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}

	total := (y*12 + (m - 1)) + n
	ty, tm := total/12, total%12+1

	switch policy {
	case Rollover:
		t := time.Date(y, time.Month(m), dd, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
		return DayOf(t), nil
	case ClampToMonthEnd, "":
		if last := DaysIn(ty, tm); dd > last {
			dd = last
		}
		return NewDay(ty, tm, dd), nil
	default:
		return "", fmt.Errorf("unknown month overflow policy: %s", policy)
	}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
