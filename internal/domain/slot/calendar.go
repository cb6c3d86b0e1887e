// Package slot holds the fixed daily slot vocabulary shared by every salon.
package slot

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	labelLayout = "03:04 PM"
	dayLayout   = "2006-01-02"

	// Separator joins the labels of a multi-slot booking.
	Separator = ", "
)

var (
	ErrEmpty        = errors.New("slot: empty time slot")
	ErrUnknownLabel = errors.New("slot: unknown time slot")
	ErrInvalidDay   = errors.New("slot: invalid date")
)

// DefaultLabels is the daily enumeration; there is no 01:00 PM slot.
var DefaultLabels = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM", "06:00 PM",
}

// Slot is a label with its rendered occupancy.
type Slot struct {
	Label string `json:"label"`
	Taken bool   `json:"taken"`
}

// Calendar is an ordered, immutable set of time-of-day labels.
type Calendar struct {
	labels []string
	index  map[string]int
}

// NewCalendar validates labels and keeps their order.
func NewCalendar(labels []string) (*Calendar, error) {
	if len(labels) == 0 {
		return nil, ErrEmpty
	}
	c := &Calendar{
		labels: make([]string, 0, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for _, l := range labels {
		if _, err := time.Parse(labelLayout, l); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, l)
		}
		if _, dup := c.index[l]; dup {
			return nil, fmt.Errorf("slot: duplicate label %q", l)
		}
		c.index[l] = len(c.labels)
		c.labels = append(c.labels, l)
	}
	return c, nil
}

// Default returns the calendar built from DefaultLabels.
func Default() *Calendar {
	c, err := NewCalendar(DefaultLabels)
	if err != nil {
		panic(err)
	}
	return c
}

// Labels returns a copy of the full ordered set.
func (c *Calendar) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

func (c *Calendar) IsValid(label string) bool {
	_, ok := c.index[label]
	return ok
}

// Parse splits a possibly comma-joined time slot into calendar-ordered,
// de-duplicated labels. Every part must be a known label.
func (c *Calendar) Parse(timeSlot string) ([]string, error) {
	parts := strings.Split(timeSlot, ",")
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !c.IsValid(p) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, p)
		}
		seen[p] = true
	}
	if len(seen) == 0 {
		return nil, ErrEmpty
	}
	return c.ordered(seen), nil
}

// Join renders labels the way they are stored on a booking.
func (c *Calendar) Join(labels []string) string {
	return strings.Join(labels, Separator)
}

// Occupied flattens stored time slot values into ordered unique labels.
// Values that do not parse are skipped.
func (c *Calendar) Occupied(timeSlots []string) []string {
	seen := make(map[string]bool)
	for _, ts := range timeSlots {
		labels, err := c.Parse(ts)
		if err != nil {
			continue
		}
		for _, l := range labels {
			seen[l] = true
		}
	}
	return c.ordered(seen)
}

// Render marks every label of the day as taken or free.
func (c *Calendar) Render(taken []string) []Slot {
	busy := make(map[string]bool, len(taken))
	for _, t := range taken {
		busy[t] = true
	}
	out := make([]Slot, 0, len(c.labels))
	for _, l := range c.labels {
		out = append(out, Slot{Label: l, Taken: busy[l]})
	}
	return out
}

// Start is the UTC instant the labelled slot begins on day.
func (c *Calendar) Start(day time.Time, label string) (time.Time, error) {
	if !c.IsValid(label) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	t, _ := time.Parse(labelLayout, label)
	d := Day(day)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func (c *Calendar) ordered(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for _, l := range c.labels {
		if set[l] {
			out = append(out, l)
		}
	}
	return out
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD or an RFC3339 timestamp and returns the UTC
// midnight of that calendar day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDay
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Day(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// DayBounds returns the inclusive UTC bounds of day: 00:00:00.000 to 23:59:59.999.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := Day(day)
	return start, start.Add(24*time.Hour - time.Millisecond)
}

// DayKey formats a day as YYYY-MM-DD.
func DayKey(day time.Time) string {
	return Day(day).Format(dayLayout)
}
