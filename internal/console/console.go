package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	// MaxSpeed is the fastest typewriter speed; it prints without delay.
	MaxSpeed = 10
	// DefaultSpeed matches the pace used for prompts.
	DefaultSpeed = 4

	stepDelay   = 5 * time.Millisecond
	clearScreen = "\033[H\033[2J"
)

// Display renders quiz text to a writer.
type Display struct {
	out   io.Writer
	tty   bool
	boost int
	sleep func(time.Duration)
}

// New creates a Display. Typewriter delays and screen clearing are only
// enabled when out is a terminal.
func New(out io.Writer) *Display {
	return &Display{
		out:   out,
		tty:   isTerminal(out),
		sleep: time.Sleep,
	}
}

// SetSpeedBoost shifts every typewriter speed by n steps. n is clamped to
// [-MaxSpeed, MaxSpeed], which already spans every delay.
func (d *Display) SetSpeedBoost(n int) {
	d.boost = max(-MaxSpeed, min(n, MaxSpeed))
}

// Delay returns the per-character delay for a speed, clamped to [0, MaxSpeed].
func Delay(speed int) time.Duration {
	speed = max(0, min(speed, MaxSpeed))
	return time.Duration(MaxSpeed-speed) * stepDelay
}

// Type prints s one rune at a time.
func (d *Display) Type(s string, speed int) {
	if s == "" {
		return
	}
	delay := Delay(speed + d.boost)
	if !d.tty || delay == 0 {
		fmt.Fprint(d.out, s)
		return
	}
	for _, r := range s {
		fmt.Fprint(d.out, string(r))
		d.sleep(delay)
	}
}

// Print writes s without delay.
func (d *Display) Print(s string) {
	fmt.Fprint(d.out, s)
}

// Println writes s and a newline without delay.
func (d *Display) Println(s string) {
	fmt.Fprintln(d.out, s)
}

// Clear wipes the terminal. It is a no-op for non-terminal writers.
func (d *Display) Clear() {
	if !d.tty {
		return
	}
	fmt.Fprint(d.out, clearScreen)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
