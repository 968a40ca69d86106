package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

const spinnerDelay = 100 * time.Millisecond

// Spinner animates while a step runs. Without a TTY it stays silent and only
// the final status line is printed.
type Spinner struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	spin    *spinner.Spinner
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, caps TerminalCapabilities) *Spinner {
	return &Spinner{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
}

// Start begins animating next to message.
func (s *Spinner) Start(message string) {
	if !s.caps.IsTTY {
		return
	}
	s.Stop()
	s.spin = spinner.New(spinner.CharSets[s.symbols.SpinnerSet], spinnerDelay, spinner.WithWriter(s.out))
	s.spin.Suffix = " " + message
	if s.caps.SupportsColor {
		_ = s.spin.Color("green", "bold")
	}
	s.spin.Start()
}

// Stop clears the spinner without printing a status line.
func (s *Spinner) Stop() {
	if s.spin != nil {
		s.spin.Stop()
		s.spin = nil
	}
}

// Success stops the spinner and prints message with a checkmark.
func (s *Spinner) Success(message string) {
	s.Stop()
	fmt.Fprintf(s.out, "%s %s\n", s.symbols.Checkmark, message)
}

// Fail stops the spinner and prints message with a failure marker.
func (s *Spinner) Fail(message string) {
	s.Stop()
	fmt.Fprintf(s.out, "%s %s\n", s.symbols.Failure, message)
}
