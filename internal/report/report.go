// Package report renders the console summary of a correction run.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/FocuswithJustin/docfix/core/correct"
)

const width = 70

var banner = strings.Repeat("=", width)

// Summary carries the run facts that are not part of the engine result.
type Summary struct {
	Output     string
	Backup     string
	InputHash  string
	OutputHash string
}

// Write prints the change log of res. Dry runs list each change with a word
// diff and no output path.
func Write(w io.Writer, res *correct.Result, s Summary) error {
	p := &printer{w: w}
	changes := res.Changes()

	p.line(banner)
	if res.DryRun {
		p.line("DRY RUN: NO FILE WRITTEN")
	} else {
		p.line("CORRECTIONS COMPLETED")
	}
	p.line(banner)

	if len(changes) > 0 {
		for _, c := range changes {
			p.printf("- %s\n", c)
			if res.DryRun {
				p.printf("    %s\n", WordDiff(c.Before, c.After))
			}
		}
		p.line(banner)
		if res.DryRun {
			p.printf("Total corrections that would be made: %d\n", len(changes))
		} else {
			p.printf("Total corrections made: %d\n", len(changes))
		}
	} else {
		p.line("No changes were needed or found.")
	}

	if warnings := res.Warnings(); len(warnings) > 0 {
		p.line(banner)
		p.printf("Warnings (%d):\n", len(warnings))
		for _, r := range warnings {
			p.printf("- %s\n", r)
		}
	}
	p.line(banner)

	if !res.DryRun && s.Output != "" {
		p.printf("\nCorrected file saved to:\n%s\n", s.Output)
	}
	if s.Backup != "" {
		p.printf("\nOriginal backed up to:\n%s\n", s.Backup)
	}
	if s.InputHash != "" || s.OutputHash != "" {
		p.line("")
		p.printf("run %s\n", res.RunID)
		if s.InputHash != "" {
			p.printf("  input  blake3 %s\n", s.InputHash)
		}
		if s.OutputHash != "" {
			p.printf("  output blake3 %s\n", s.OutputHash)
		}
	}
	return p.err
}

// WordDiff marks deletions as [-text-] and insertions as {+text+}.
func WordDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}
