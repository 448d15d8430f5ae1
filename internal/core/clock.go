package core

import "time"

// Clock supplies "today" in the business's local calendar.
type Clock interface {
	Today() Day
}

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() Day {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return DayOf(time.Now().In(loc))
}

// FixedClock always returns the same day.
type FixedClock Day

func (c FixedClock) Today() Day {
	return Day(c)
}
