// Package console renders progress, status and section headers for the
// interactive shell.
package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Console writes human-readable messages. It is the log sink the wizard
// reports to; structured logs go to zap separately.
type Console struct {
	out        io.Writer
	useSpinner bool

	header  *color.Color
	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	muted   *color.Color
}

// New creates a Console writing to out.
func New(out io.Writer, useColor, useSpinner bool) *Console {
	c := &Console{
		out:        out,
		useSpinner: useSpinner,
		header:     color.New(color.FgCyan, color.Bold),
		info:       color.New(color.FgBlue),
		success:    color.New(color.FgGreen),
		warn:       color.New(color.FgYellow),
		fail:       color.New(color.FgRed),
		muted:      color.New(color.FgHiBlack),
	}
	if !useColor {
		for _, col := range []*color.Color{c.header, c.info, c.success, c.warn, c.fail, c.muted} {
			col.DisableColor()
		}
	}
	return c
}

// Out returns the underlying writer.
func (c *Console) Out() io.Writer { return c.out }

// Header prints a ruled section title.
func (c *Console) Header(title string) {
	fmt.Fprintln(c.out)
	c.header.Fprintln(c.out, rule)
	c.header.Fprintln(c.out, "  "+strings.ToUpper(title))
	c.header.Fprintln(c.out, rule)
	fmt.Fprintln(c.out)
}

func (c *Console) stamp(col *color.Color, format string, a ...any) {
	c.muted.Fprintf(c.out, "[%s] ", time.Now().Format("15:04:05"))
	col.Fprintf(c.out, format, a...)
	fmt.Fprintln(c.out)
}

// Info prints a neutral status line.
func (c *Console) Info(format string, a ...any) { c.stamp(c.info, format, a...) }

// Success prints a completed-step line.
func (c *Console) Success(format string, a ...any) { c.stamp(c.success, format, a...) }

// Warn prints a warning line.
func (c *Console) Warn(format string, a ...any) { c.stamp(c.warn, format, a...) }

// Error prints a failure line.
func (c *Console) Error(format string, a ...any) { c.stamp(c.fail, format, a...) }

// Printf writes unstyled text.
func (c *Console) Printf(format string, a ...any) { fmt.Fprintf(c.out, format, a...) }

// Println writes an unstyled line.
func (c *Console) Println(a ...any) { fmt.Fprintln(c.out, a...) }

// Columns prints a numbered header list, as used for column selection.
func (c *Console) Columns(title string, headers []string) {
	c.success.Fprintln(c.out, title)
	for i, h := range headers {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, h)
	}
	fmt.Fprintln(c.out)
}

// Spin runs fn while a loading indicator is shown.
func (c *Console) Spin(message string, fn func() error) error {
	if !c.useSpinner {
		c.Info("%s", message)
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(c.out))
	s.Suffix = " " + message
	s.Start()
	err := fn()
	s.Stop()
	return err
}
