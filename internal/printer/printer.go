package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	OutputPlain = "plain"
	OutputJSON  = "json"
)

// Printer renders command results. Log lines are progress notes, Out is the
// final user-facing result of a command.
type Printer interface {
	PrintTable(data Table, opts TableOpts) error
	Log(msg string) error
	Out(v any) error
	IsJSON() bool
}

type TableOpts struct {
	// Format is the account reading format, kept for renderers that care.
	Format   string
	MaxWidth int
}

// StdoutPrinter writes plain text or JSON to out.
type StdoutPrinter struct {
	out    io.Writer
	format string
}

func NewStdoutPrinter(out io.Writer, format string) (*StdoutPrinter, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "":
		format = OutputPlain
	case OutputPlain, OutputJSON:
	default:
		return nil, fmt.Errorf("invalid output format %q (expected %s or %s)", format, OutputPlain, OutputJSON)
	}
	return &StdoutPrinter{out: out, format: format}, nil
}

func (p *StdoutPrinter) IsJSON() bool {
	return p.format == OutputJSON
}

func (p *StdoutPrinter) PrintTable(data Table, opts TableOpts) error {
	if p.IsJSON() {
		return p.writeJSON(data)
	}
	return WriteTable(p.out, data, opts)
}

// Log is silenced in JSON mode so that stdout stays machine readable.
func (p *StdoutPrinter) Log(msg string) error {
	if p.IsJSON() {
		return nil
	}
	_, err := fmt.Fprintln(p.out, msg)
	return err
}

func (p *StdoutPrinter) Out(v any) error {
	if p.IsJSON() {
		return p.writeJSON(v)
	}
	_, err := fmt.Fprintln(p.out, v)
	return err
}

func (p *StdoutPrinter) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("cannot encode json output: %w", err)
	}
	return nil
}
