package service

import (
	"time"
)

const dateLayout = "2006-01-02"

// Calendar resolves business days in the store's timezone.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar builds a Calendar; nil arguments fall back to UTC and time.Now.
func NewCalendar(loc *time.Location, now func() time.Time) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Calendar{loc: loc, now: now}
}

func (c Calendar) clock() Calendar {
	if c.now == nil || c.loc == nil {
		return NewCalendar(c.loc, c.now)
	}
	return c
}

// Now returns the current instant in the business timezone.
func (c Calendar) Now() time.Time {
	c = c.clock()
	return c.now().In(c.loc)
}

// Today is the current business date as YYYY-MM-DD.
func (c Calendar) Today() string { return c.Now().Format(dateLayout) }

// TodayDate is today's business date as a UTC-midnight value for date columns.
func (c Calendar) TodayDate() time.Time {
	d, _ := c.Date(c.Today())
	return d
}

// Date parses YYYY-MM-DD into a UTC-midnight value for date columns.
func (c Calendar) Date(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// DayStart maps a calendar date to the instant the business day begins.
func (c Calendar) DayStart(date time.Time) time.Time {
	c = c.clock()
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// Range returns the instants [start of from, start of the day after to).
func (c Calendar) Range(from, to time.Time) (time.Time, time.Time) {
	return c.DayStart(from), c.DayStart(to).AddDate(0, 0, 1)
}
