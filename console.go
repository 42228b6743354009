package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Console prints progress to out and diagnostics to errOut.
// A nil *Console discards everything, which is what library callers and most
// tests want.
type Console struct {
	out    io.Writer
	errOut io.Writer

	success *color.Color
	warn    *color.Color
	fail    *color.Color
	label   *color.Color
}

// NewConsole returns a console writing to the given streams.
// Colours are switched off by fatih/color when the streams are not a TTY.
func NewConsole(out, errOut io.Writer) *Console {
	return &Console{
		out:     out,
		errOut:  errOut,
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		label:   color.New(color.FgCyan),
	}
}

// StdConsole writes to the process' stdout and stderr.
func StdConsole() *Console {
	return NewConsole(os.Stdout, os.Stderr)
}

// Infof prints a plain progress line.
func (c *Console) Infof(format string, args ...any) {
	if c == nil {
		return
	}
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Successf prints a green progress line.
func (c *Console) Successf(format string, args ...any) {
	if c == nil {
		return
	}
	c.success.Fprintf(c.out, format+"\n", args...)
}

// Labelf prints "label: value" with a cyan label.
func (c *Console) Labelf(label, format string, args ...any) {
	if c == nil {
		return
	}
	fmt.Fprintf(c.out, "%s: %s\n", c.label.Sprint(label), fmt.Sprintf(format, args...))
}

// Warnf prints a yellow diagnostic to the error stream.
func (c *Console) Warnf(format string, args ...any) {
	if c == nil {
		return
	}
	c.warn.Fprintf(c.errOut, "Warning: "+format+"\n", args...)
}

// Errorf prints a red diagnostic to the error stream.
func (c *Console) Errorf(format string, args ...any) {
	if c == nil {
		return
	}
	c.fail.Fprintf(c.errOut, "Error: "+format+"\n", args...)
}

// progress returns the stream long-running operations report to.
func (c *Console) progress() io.Writer {
	if c == nil {
		return io.Discard
	}
	return c.out
}
