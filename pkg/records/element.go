package records

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidElement is returned when a collection element fails validation.
var ErrInvalidElement = errors.New("invalid element")

// DateLayout is the calendar-date format used by date plans and reflections.
const DateLayout = "2006-01-02"

// Element is implemented by every collection element.
type Element interface {
	ElementID() string
	Validate() error
}

// Authored is implemented by shared elements that carry their creator's id.
type Authored interface {
	Element
	Author() string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidElement, fmt.Sprintf(format, args...))
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// ParseDate accepts a YYYY-MM-DD date or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (g Goal) ElementID() string { return g.ID }

func (g Goal) Validate() error {
	if blank(g.Text) {
		return invalid("goal text is empty")
	}
	if g.Kind != GoalDaily && g.Kind != GoalWeekly {
		return invalid("goal kind %q must be daily or weekly", g.Kind)
	}
	return nil
}

func (h Habit) ElementID() string { return h.ID }

func (h Habit) Validate() error {
	if blank(h.HabitText) || blank(h.IdealAction) {
		return invalid("habit needs both the habit and the ideal action")
	}
	if h.SuccessCount < 0 {
		return invalid("habit success count %d is negative", h.SuccessCount)
	}
	return nil
}

func (r Reflection) ElementID() string { return r.ID }

func (r Reflection) Validate() error {
	if _, err := ParseDate(r.WeekEnding); err != nil {
		return invalid("reflection week ending %q is not a date", r.WeekEnding)
	}
	return nil
}

func (v Value) ElementID() string { return v.ID }

func (v Value) Validate() error {
	if blank(v.Label) {
		return invalid("value label is empty")
	}
	return nil
}

func (a AngerLog) ElementID() string { return a.ID }

func (a AngerLog) Validate() error {
	if a.Intensity < 1 || a.Intensity > 10 {
		return invalid("intensity %d is outside 1..10", a.Intensity)
	}
	if a.Timestamp.IsZero() {
		return invalid("anger log has no timestamp")
	}
	return nil
}

func (m Memo) ElementID() string { return m.ID }
func (m Memo) Author() string    { return m.AuthorID }

func (m Memo) Validate() error {
	if blank(m.Text) {
		return invalid("memo text is empty")
	}
	return nil
}

func (w Wish) ElementID() string { return w.ID }
func (w Wish) Author() string    { return w.AuthorID }

func (w Wish) Validate() error {
	if blank(w.Text) {
		return invalid("wish text is empty")
	}
	return nil
}

func (a Appreciation) ElementID() string { return a.ID }
func (a Appreciation) Author() string    { return a.AuthorID }

func (a Appreciation) Validate() error {
	if blank(a.Text) {
		return invalid("appreciation text is empty")
	}
	return nil
}

func (e ManualEntry) ElementID() string { return e.ID }

func (e ManualEntry) Validate() error {
	if !ValidCategory(e.Category) {
		return invalid("unknown manual category %q", e.Category)
	}
	if blank(e.Content) {
		return invalid("manual entry content is empty")
	}
	return nil
}

func (p DatePlan) ElementID() string { return p.ID }
func (p DatePlan) Author() string    { return p.AuthorID }

func (p DatePlan) Validate() error {
	if blank(p.Title) {
		return invalid("date plan title is empty")
	}
	if _, err := ParseDate(p.Date); err != nil {
		return invalid("date plan date %q is not a date", p.Date)
	}
	return nil
}

// ValidMood reports whether m is one of the known moods.
func ValidMood(m Mood) bool {
	return m == MoodHappy || m == MoodOkay || m == MoodSad
}

// ValidCategory reports whether c is one of the manual categories.
func ValidCategory(c ManualCategory) bool {
	for _, known := range ManualCategories {
		if c == known {
			return true
		}
	}
	return false
}
