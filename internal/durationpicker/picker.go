// Package durationpicker implements the input state machine behind the
// hours/minutes duration fields. It converts between a non-negative
// total-minutes value and an HH:MM display pair, accepting digit keystrokes
// into a two-character buffer per field.
package durationpicker

import (
	"fmt"
	"strconv"
	"time"
)

// Field identifies which half of the HH:MM pair is receiving digits.
type Field int

const (
	FieldHours Field = iota
	FieldMinutes
)

const (
	maxHours   = 23
	maxMinutes = 59

	// AutoAdvanceDelay is how long after a second hours digit the picker
	// waits before switching the active field to minutes.
	AutoAdvanceDelay = 750 * time.Millisecond
)

// Picker holds the committed hours/minutes pair plus the transient input
// state (active field, pending digit buffer, auto-advance deadline). The
// committed pair only changes when an in-bound value is entered; canceling
// discards nothing but the pending buffer.
type Picker struct {
	hours   int
	minutes int

	active    Field
	buffer    string
	advanceAt time.Time // zero when no auto-advance is scheduled

	now func() time.Time
}

// New returns a picker initialized from a total-minutes value. Negative
// totals are treated as zero. The minutes field starts active, matching how
// the picker opens.
func New(totalMinutes int) *Picker {
	h, m := Decompose(totalMinutes)
	return &Picker{hours: h, minutes: m, active: FieldMinutes, now: time.Now}
}

// SelectField activates a field for digit entry. Switching fields always
// resets the pending buffer and cancels any scheduled auto-advance.
func (p *Picker) SelectField(f Field) {
	p.active = f
	p.buffer = ""
	p.advanceAt = time.Time{}
}

// ActiveField returns the field currently receiving digits.
func (p *Picker) ActiveField() Field {
	return p.active
}

// PressDigit feeds one digit keystroke into the active field. The buffer
// keeps the most recent two digits. If the buffered number is within the
// field's bound it is committed immediately; an over-bound number is rejected
// and leaves the committed value untouched, though the buffer still reflects
// the keystroke for display feedback. Entering a second hours digit schedules
// the auto-advance to minutes.
func (p *Picker) PressDigit(d rune) {
	if d < '0' || d > '9' {
		return
	}
	p.buffer += string(d)
	if len(p.buffer) > 2 {
		p.buffer = p.buffer[len(p.buffer)-2:]
	}

	n, _ := strconv.Atoi(p.buffer)
	switch p.active {
	case FieldMinutes:
		if n <= maxMinutes {
			p.minutes = n
		}
	case FieldHours:
		if n <= maxHours {
			p.hours = n
		}
		if len(p.buffer) == 2 {
			p.advanceAt = p.now().Add(AutoAdvanceDelay)
		}
	}
}

// Tick performs the pending auto-advance once its deadline has passed. It is
// intended to be called from the host's event loop; calling it early or when
// nothing is scheduled is a no-op.
func (p *Picker) Tick() {
	if p.advanceAt.IsZero() || p.now().Before(p.advanceAt) {
		return
	}
	p.SelectField(FieldMinutes)
}

// Cancel closes the picker, discarding only the uncommitted buffer. The last
// committed value survives.
func (p *Picker) Cancel() {
	p.buffer = ""
	p.advanceAt = time.Time{}
	p.active = FieldMinutes
}

// Buffer exposes the raw pending digits for display feedback.
func (p *Picker) Buffer() string {
	return p.buffer
}

// Display returns the committed pair as zero-padded strings.
func (p *Picker) Display() (hours, minutes string) {
	return fmt.Sprintf("%02d", p.hours), fmt.Sprintf("%02d", p.minutes)
}

// Total returns the committed value as total minutes.
func (p *Picker) Total() int {
	return Recompose(p.hours, p.minutes)
}

// Decompose splits total minutes into an hours/minutes pair.
func Decompose(totalMinutes int) (hours, minutes int) {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	return totalMinutes / 60, totalMinutes % 60
}

// Recompose is the inverse of Decompose.
func Recompose(hours, minutes int) int {
	return hours*60 + minutes
}

// FormatMinutes renders a total-minutes value the way recipe views show
// durations: "0 min", "45 min", "2h", "1h 30min".
func FormatMinutes(totalMinutes int) string {
	if totalMinutes <= 0 {
		return "0 min"
	}
	if totalMinutes < 60 {
		return fmt.Sprintf("%d min", totalMinutes)
	}
	h, m := Decompose(totalMinutes)
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}
