package messages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Category is one of the four message slots, numbered 1 to 4.
type Category int

// The message categories in the order a sequence speaks them.
const (
	CheckIn Category = iota + 1
	Motivation
	Punishment
	Encouragement
)

// NumCategories is the number of message slots.
const NumCategories = 4

// ErrBadCategory is returned for a category outside 1..4.
var ErrBadCategory = errors.New("category must be between 1 and 4")

// Categories returns every category in speaking order.
func Categories() []Category {
	return []Category{CheckIn, Motivation, Punishment, Encouragement}
}

// Valid reports whether c names one of the four slots.
func (c Category) Valid() bool {
	return c >= CheckIn && c <= Encouragement
}

// Name is the header written at the top of the category's message file.
func (c Category) Name() string {
	switch c {
	case CheckIn:
		return "Check-in Messages"
	case Motivation:
		return "Motivation Messages"
	case Punishment:
		return "Punishment Messages"
	case Encouragement:
		return "Encouragement Messages"
	default:
		return "Unknown"
	}
}

// Short returns the name without the "Messages" suffix.
func (c Category) Short() string {
	return strings.TrimSuffix(c.Name(), " Messages")
}

// FileName is the message file backing the category.
func (c Category) FileName() string {
	return fmt.Sprintf("Audio%d.md", int(c))
}

// PoolDir is the audio pool directory for the category.
func (c Category) PoolDir() string {
	return fmt.Sprintf("Audio%d", int(c))
}

func (c Category) String() string {
	return strconv.Itoa(int(c))
}

// ParseCategory accepts a number ("2") or a case-insensitive short name
// ("motivation").
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		c := Category(n)
		if !c.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrBadCategory, n)
		}
		return c, nil
	}
	for _, c := range Categories() {
		if strings.EqualFold(s, c.Short()) || strings.EqualFold(s, c.Name()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadCategory, s)
}

// Examples returns suggested messages for quick add.
func (c Category) Examples() []string {
	switch c {
	case CheckIn:
		return []string{
			"What are you doing right now?",
			"Time to check in!",
			"Quick focus check!",
			"Are you on track?",
			"How's your progress?",
		}
	case Motivation:
		return []string{
			"Get back to work!",
			"Focus on your goals!",
			"You can do this!",
			"Stay productive!",
			"Push through!",
		}
	case Punishment:
		return []string{
			"Seriously? Again?",
			"You're better than this!",
			"No excuses!",
			"Stop wasting time!",
			"Focus now!",
		}
	case Encouragement:
		return []string{
			"Great job!",
			"Keep it up!",
			"You're doing amazing!",
			"Stay strong!",
			"Almost there!",
		}
	}
	return nil
}
