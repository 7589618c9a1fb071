// Package reminders implements brobot's scheduled reminder subsystem:
// parsing of free-form time expressions, a SQLite backed store of pending
// reminders and a polling scheduler that delivers each reminder at most once.
package reminders

import (
	"errors"
	"fmt"
	"time"
)

// Reminder is a persisted request to deliver a message at or after DueAt.
type Reminder struct {
	ID        int64
	OwnerID   string
	TargetID  string
	Text      string
	DueAt     time.Time
	CreatedAt time.Time
	Sent      bool
}

// Store errors, surfaced verbatim to the requesting user by the command layer.
var (
	ErrNotFound        = errors.New("reminder not found")
	ErrNotOwner        = errors.New("you can only manage your own reminders")
	ErrInvalidReminder = errors.New("reminder time must be after its creation time")
)

// ParseErrorKind tells apart the two ways a time expression can be bad.
type ParseErrorKind int

const (
	// Unparseable means no known grammar matched the expression.
	Unparseable ParseErrorKind = iota
	// PastTime means the expression parsed fine but is not in the future.
	PastTime
)

// Guidance shown to the user alongside an Unparseable error.
const FormatGuidance = `try "2026-01-05 14:30", "12/3 18:00", "tomorrow", ` +
	`"in 2 weeks", "2h30m" or "next friday 9:15"`

// ParseError is a user input error from the time expression parser.
type ParseError struct {
	Kind       ParseErrorKind
	Expression string
}

func (e *ParseError) Error() string {
	if e.Kind == PastTime {
		return fmt.Sprintf("%q is not in the future", e.Expression)
	}
	return fmt.Sprintf("can't understand %q, %s", e.Expression, FormatGuidance)
}

func unparseable(expression string) *ParseError {
	return &ParseError{Kind: Unparseable, Expression: expression}
}

func pastTime(expression string) *ParseError {
	return &ParseError{Kind: PastTime, Expression: expression}
}
