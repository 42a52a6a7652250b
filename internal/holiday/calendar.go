// Package holiday answers whether a calendar date is a Brazilian public
// holiday. Flights depart and arrive on dates, not instants: lookups discard
// the time-of-day component before matching.
package holiday

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
)

// Calendar is an immutable public-holiday calendar, safe for concurrent use.
type Calendar struct {
	cal *cal.Calendar
}

// NewBrazil builds the Brazilian national holiday calendar.
func NewBrazil() *Calendar {
	c := &cal.Calendar{Name: "Brasil", Cacheable: true}
	c.AddHoliday(br.Holidays...)
	return &Calendar{cal: c}
}

// IsHoliday reports whether the calendar date of t is a public holiday.
// The full timestamp must not be matched directly: comparing instants
// instead of dates caused off-by-one-day misses in earlier revisions.
func (c *Calendar) IsHoliday(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	actual, _, _ := c.cal.IsHoliday(d)
	return actual
}

// Flag returns the model feature value: 1 on a holiday, else 0.
func (c *Calendar) Flag(t time.Time) int {
	if c.IsHoliday(t) {
		return 1
	}
	return 0
}
