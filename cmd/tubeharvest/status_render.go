package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"tubeharvest/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusLabelWidth = 22

var statusKinds = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// statusPrinter writes labelled status lines grouped under section headers.
type statusPrinter struct {
	out      io.Writer
	colorize bool
	sections int
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *statusPrinter) section(title string) {
	if p.sections > 0 {
		fmt.Fprintln(p.out)
	}
	p.sections++
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(header))
	fmt.Fprintln(p.out, p.paint(ansiBlue, header))
	fmt.Fprintln(p.out, p.paint(ansiBlue, rule))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	meta := statusKinds[kind]
	text := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", meta.label)
	if message != "" {
		text += " " + message
	}
	fmt.Fprintln(p.out, p.paint(meta.color, text))
}

func (p *statusPrinter) result(r preflight.Result) {
	kind := statusOK
	if !r.Passed {
		kind = statusError
	}
	p.line(r.Name, kind, r.Detail)
}

func (p *statusPrinter) paint(color, text string) string {
	if !p.colorize || color == "" {
		return text
	}
	return color + text + ansiReset
}

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
