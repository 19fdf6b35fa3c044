package durationpicker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func press(p *Picker, digits string) {
	for _, d := range digits {
		p.PressDigit(d)
	}
}

func TestDecomposeRecomposeRoundTrip(t *testing.T) {
	for total := 0; total <= 23*60+59; total++ {
		h, m := Decompose(total)
		assert.LessOrEqual(t, m, 59)
		assert.Equal(t, total, Recompose(h, m))
	}
}

func TestDigitEntryCommitsInBoundValues(t *testing.T) {
	p := New(0)

	p.SelectField(FieldMinutes)
	press(p, "45")
	assert.Equal(t, 45, p.Total())

	p.SelectField(FieldHours)
	press(p, "2")
	assert.Equal(t, 2*60+45, p.Total())
}

func TestOverBoundMinutesRejected(t *testing.T) {
	p := New(30) // committed: 00:30

	p.SelectField(FieldMinutes)
	press(p, "99")
	// First digit commits 9, second makes 99 which is over the bound and is
	// rejected; the committed value stays at the last in-bound commit.
	assert.Equal(t, 9, p.Total())
	// The buffer still shows the rejected keystrokes.
	assert.Equal(t, "99", p.Buffer())

	_, minutes := p.Display()
	assert.Equal(t, "09", minutes)
}

func TestBufferKeepsMostRecentTwoDigits(t *testing.T) {
	p := New(0)
	p.SelectField(FieldMinutes)
	press(p, "123")
	assert.Equal(t, "23", p.Buffer())
	assert.Equal(t, 23, p.Total())
}

func TestSelectFieldResetsBuffer(t *testing.T) {
	p := New(0)
	p.SelectField(FieldMinutes)
	press(p, "4")
	p.SelectField(FieldHours)
	assert.Equal(t, "", p.Buffer())
}

func TestAutoAdvanceAfterTwoHoursDigits(t *testing.T) {
	p := New(0)
	current := time.Unix(1000, 0)
	p.now = func() time.Time { return current }

	p.SelectField(FieldHours)
	press(p, "12")
	assert.Equal(t, FieldHours, p.ActiveField())

	// Before the debounce deadline nothing happens.
	p.Tick()
	assert.Equal(t, FieldHours, p.ActiveField())

	current = current.Add(AutoAdvanceDelay)
	p.Tick()
	assert.Equal(t, FieldMinutes, p.ActiveField())
	assert.Equal(t, "", p.Buffer())
	assert.Equal(t, 12*60, p.Total())
}

func TestSingleHoursDigitDoesNotAdvance(t *testing.T) {
	p := New(0)
	current := time.Unix(1000, 0)
	p.now = func() time.Time { return current }

	p.SelectField(FieldHours)
	press(p, "2")
	current = current.Add(time.Hour)
	p.Tick()
	assert.Equal(t, FieldHours, p.ActiveField())
}

func TestCancelKeepsCommittedValue(t *testing.T) {
	p := New(0)
	p.SelectField(FieldMinutes)
	press(p, "45")
	p.Cancel()
	assert.Equal(t, 45, p.Total())
	assert.Equal(t, "", p.Buffer())
}

func TestNewClampsNegative(t *testing.T) {
	p := New(-5)
	assert.Equal(t, 0, p.Total())
}

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{
		0:   "0 min",
		45:  "45 min",
		60:  "1h",
		90:  "1h 30min",
		120: "2h",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMinutes(in))
	}
}
