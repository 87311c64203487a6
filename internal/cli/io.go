package cli

import (
	"fmt"
	"io"

	"github.com/calvinalkan/cycle-count/internal/count"
	"github.com/calvinalkan/cycle-count/internal/session"
)

// IO is what a command sees of the terminal: results on stdout, errors and
// warnings on stderr, user-facing text in the configured language.
//
// Warnings are shown before the first stdout line and repeated by
// [IO.Finish], so a piped `| head` or `| tail` still shows them. Results are
// printed regardless, but any warning turns the exit code into 1.
type IO struct {
	out    io.Writer
	errOut io.Writer
	prefs  session.Prefs

	warnings []string
	warned   bool
}

// NewIO returns an IO writing to out and errOut in the language of prefs.
func NewIO(out, errOut io.Writer, prefs session.Prefs) *IO {
	return &IO{out: out, errOut: errOut, prefs: prefs}
}

// Warn records that something went half-way: what happened and what the
// operator should do next.
func (o *IO) Warn(what string, action string) {
	o.warnings = append(o.warnings, what+": "+action)
}

// Println writes a result line.
func (o *IO) Println(a ...any) {
	o.warnOnce()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted result output.
func (o *IO) Printf(format string, a ...any) {
	o.warnOnce()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// Say prints m in the configured language.
func (o *IO) Say(m session.Text, args ...any) {
	o.Println(o.prefs.Sprintf(m, args...))
}

// Write copies raw bytes to stdout, e.g. an export streamed with --stdout.
func (o *IO) Write(p []byte) (int, error) {
	o.warnOnce()

	return o.out.Write(p)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Error prints err as "error: <msg>". Validation errors use the message a
// worker would see in the configured language.
func (o *IO) Error(err error) {
	msg := err.Error()
	if count.IsValidation(err) {
		msg = o.prefs.ErrorText(err)
	}

	o.ErrPrintln("error:", msg)
}

// Finish repeats the warnings at the end of output and returns the exit code.
func (o *IO) Finish() int {
	o.warnOnce()

	o.printWarnings()

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

// warnOnce prints pending warnings ahead of the first output.
func (o *IO) warnOnce() {
	if o.warned || len(o.warnings) == 0 {
		return
	}

	o.warned = true
	o.printWarnings()
}

func (o *IO) printWarnings() {
	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}
}
