package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	clockLayout      = "15:04"
	clockLayoutFull  = "15:04:05"
	minutesPerHour   = 60
	minutesPerDay    = 24 * minutesPerHour
	clockFieldLength = 5
)

// Clock is a wall-clock time of day with minute precision, stored in a TIME column.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*minutesPerHour + minute)
}

// ParseClock accepts "15:04" or "15:04:05".
func ParseClock(value string) (Clock, error) {
	layout := clockLayout
	if len(value) > clockFieldLength {
		layout = clockLayoutFull
	}

	parsed, err := time.Parse(layout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}

	return NewClock(parsed.Hour(), parsed.Minute()), nil
}

func (c Clock) Hour() int {
	return int(c) / minutesPerHour
}

func (c Clock) Minute() int {
	return int(c) % minutesPerHour
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the instant of c on the calendar day of date in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

func (c Clock) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// Scan implements sql.Scanner.
func (c *Clock) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c = NewClock(v.Hour(), v.Minute())

		return nil
	case []byte:
		return c.parse(string(v))
	case string:
		return c.parse(v)
	case nil:
		*c = 0

		return nil
	default:
		return fmt.Errorf("cannot scan %T into Clock", src)
	}
}

func (c *Clock) parse(value string) error {
	parsed, err := ParseClock(value)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// Value implements driver.Valuer.
func (c Clock) Value() (driver.Value, error) {
	return c.String() + ":00", nil
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("clock must be a string: %w", err)
	}

	return c.parse(value)
}

// Window is a half-open [Start, End) interval on a calendar date.
type Window struct {
	Date  time.Time
	Start Clock
	End   Clock
}

func (w Window) WellOrdered() bool {
	return w.Start.Valid() && w.End.Valid() && w.Start < w.End
}

func (w Window) SameDay(other Window) bool {
	return w.Date.Year() == other.Date.Year() && w.Date.YearDay() == other.Date.YearDay()
}

// Overlaps uses half-open semantics so back-to-back windows do not collide.
func (w Window) Overlaps(other Window) bool {
	return w.SameDay(other) && w.Start < other.End && other.Start < w.End
}
