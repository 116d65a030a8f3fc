// Command docfix applies ordered text-correction rules to the paragraphs of
// a .docx document and reports what changed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/docfix/core/correct"
	"github.com/FocuswithJustin/docfix/core/docx"
	"github.com/FocuswithJustin/docfix/core/rules"
	"github.com/FocuswithJustin/docfix/core/sqlite"
	"github.com/FocuswithJustin/docfix/internal/archive"
	"github.com/FocuswithJustin/docfix/internal/config"
	"github.com/FocuswithJustin/docfix/internal/journal"
	"github.com/FocuswithJustin/docfix/internal/logging"
	"github.com/FocuswithJustin/docfix/internal/report"
	"github.com/FocuswithJustin/docfix/internal/validation"
)

const version = "0.1.0"

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	now              = time.Now
)

// Globals are flags shared by every command.
type Globals struct {
	LogLevel  string          `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,warning,error"`
	LogFormat string          `name:"log-format" help:"Log format (text, json)" default:"text" enum:"text,json"`
	Config    kong.ConfigFlag `help:"Configuration file"`
	Journal   string          `help:"Run history database" default:"${journal}" type:"path"`
	NoJournal bool            `name:"no-journal" help:"Do not record runs in the history database"`
}

// CLI defines the command-line interface for docfix.
type CLI struct {
	Globals

	Apply      ApplyCmd      `cmd:"" help:"Apply rule files to a document and save the result"`
	Check      CheckCmd      `cmd:"" help:"Show what rule files would change without writing"`
	Lint       LintCmd       `cmd:"" help:"Check rule files for dependent or non-idempotent edits"`
	Paragraphs ParagraphsCmd `cmd:"" help:"List document paragraphs with their indices"`
	History    HistoryCmd    `cmd:"" help:"List journaled runs or the changes of one run"`
	Restore    RestoreCmd    `cmd:"" help:"Restore a document from its backup archive"`
	Version    VersionCmd    `cmd:"" help:"Print version information"`
}

// AfterApply configures logging once flags and configuration are resolved.
func (g *Globals) AfterApply() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func (g *Globals) openJournal() (*journal.Journal, error) {
	if g.NoJournal || g.Journal == "" {
		return nil, nil
	}
	return journal.Open(g.Journal)
}

// ApplyCmd applies rules and saves the corrected document.
type ApplyCmd struct {
	Input     string   `arg:"" help:"Document to correct (.docx)"`
	Rules     []string `short:"r" help:"Rule files (.rules, .yaml), applied in order" required:""`
	Output    string   `short:"o" help:"Output path (default: <input>_CORRECTED.docx)"`
	InPlace   bool     `name:"in-place" help:"Overwrite the input after backing it up"`
	NoBackup  bool     `name:"no-backup" help:"Skip the backup archive when overwriting the input"`
	DryRun    bool     `name:"dry-run" short:"n" help:"Report changes without writing a file"`
	Normalize bool     `help:"Collapse repeated spaces in every changed paragraph"`
}

// DefaultOutput returns the output path used when none is given.
func DefaultOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_CORRECTED" + ext
}

func (c *ApplyCmd) Run(g *Globals) error {
	if err := validation.ValidateInput("input", c.Input); err != nil {
		return err
	}
	for _, r := range c.Rules {
		if err := validation.ValidateInput("rules", r); err != nil {
			return err
		}
	}

	output := c.Output
	derived := false
	switch {
	case c.InPlace && c.Output != "":
		return errors.New("--in-place and --output are mutually exclusive")
	case c.InPlace:
		output = c.Input
	case output == "":
		output = DefaultOutput(c.Input)
		derived = true
	}
	if !c.DryRun {
		if err := validation.ValidateOutput(c.Input, output, c.InPlace); err != nil {
			return err
		}
		// A derived name is only written once; replacing it takes an explicit -o.
		if derived {
			if err := validation.ValidateAbsent(output); err != nil {
				return err
			}
		}
	}

	ruleSet, err := rules.LoadAll(c.Rules)
	if err != nil {
		return err
	}
	for _, f := range correct.Lint(ruleSet) {
		logging.Warn("rule lint", "rule", f.Rule, "kind", string(f.Kind), "message", f.Message)
		fmt.Fprintf(stderr, "warning: %s\n", f)
	}

	doc, err := docx.Open(c.Input)
	if err != nil {
		return err
	}
	logging.DocumentOpened(c.Input, doc.Len(), doc.Hash())

	started := now()
	engine := correct.New(
		correct.WithNormalize(c.Normalize),
		correct.WithDryRun(c.DryRun),
		correct.WithLogger(logging.GetLogger()),
	)
	res, err := engine.Run(doc, ruleSet)
	if err != nil {
		logging.RunFailed("apply", err)
		return err
	}

	summary := report.Summary{InputHash: doc.Hash()}
	if !c.DryRun {
		summary.Output = output
		if c.InPlace && !c.NoBackup {
			backup, _, err := archive.Backup(c.Input, res.RunID)
			if err != nil {
				logging.RunFailed("backup", err)
				return err
			}
			logging.BackupWritten(c.Input, backup)
			summary.Backup = backup
		}
		hash, err := doc.Save(output)
		if err != nil {
			logging.RunFailed("save", err)
			return err
		}
		summary.OutputHash = hash
		logging.DocumentSaved(output, summary.OutputHash, "changes", len(res.Changes()))
	}

	command := "apply"
	if c.DryRun {
		command = "check"
	}
	c.journal(g, command, started, res, summary)

	return report.Write(stdout, res, summary)
}

// journal records the run; a history failure never fails the correction.
func (c *ApplyCmd) journal(g *Globals, command string, started time.Time, res *correct.Result, s report.Summary) {
	j, err := g.openJournal()
	if err != nil {
		logging.Warn("journal unavailable", "error", err)
		return
	}
	if j == nil {
		return
	}
	defer j.Close()

	run := journal.Run{
		ID:         res.RunID,
		StartedAt:  started,
		Command:    command,
		Input:      absPath(c.Input),
		InputHash:  s.InputHash,
		Backup:     s.Backup,
		RuleFiles:  strings.Join(c.Rules, ","),
		DryRun:     res.DryRun,
		Changes:    len(res.Changes()),
		Warnings:   len(res.Warnings()),
		OutputHash: s.OutputHash,
	}
	if s.Output != "" {
		run.Output = absPath(s.Output)
	}
	if err := j.Record(context.Background(), run, res.Records); err != nil {
		logging.Warn("journal write failed", "run_id", res.RunID, "error", err)
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// CheckCmd is a dry-run apply.
type CheckCmd struct {
	Input     string   `arg:"" help:"Document to check (.docx)"`
	Rules     []string `short:"r" help:"Rule files (.rules, .yaml), applied in order" required:""`
	Normalize bool     `help:"Collapse repeated spaces in every changed paragraph"`
}

func (c *CheckCmd) Run(g *Globals) error {
	apply := ApplyCmd{Input: c.Input, Rules: c.Rules, Normalize: c.Normalize, DryRun: true}
	return apply.Run(g)
}

// LintCmd reports rule-set hazards.
type LintCmd struct {
	Rules  []string `arg:"" help:"Rule files to check"`
	Strict bool     `help:"Exit with an error when any finding is reported"`
}

func (c *LintCmd) Run() error {
	ruleSet, err := rules.LoadAll(c.Rules)
	if err != nil {
		return err
	}
	findings := correct.Lint(ruleSet)
	if len(findings) == 0 {
		fmt.Fprintf(stdout, "%d rules, no findings\n", len(ruleSet))
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(stdout, "%s\n", f)
	}
	fmt.Fprintf(stdout, "%d rules, %d findings\n", len(ruleSet), len(findings))
	if c.Strict {
		return fmt.Errorf("%d lint findings", len(findings))
	}
	return nil
}

// ParagraphsCmd lists paragraphs for authoring index rules.
type ParagraphsCmd struct {
	Input string `arg:"" help:"Document to list (.docx)"`
	Grep  string `help:"Only paragraphs containing this text"`
	Style string `help:"Only paragraphs with this style ID"`
	Empty bool   `help:"Include empty paragraphs"`
	Info  bool   `help:"Print document properties and fingerprint first"`
}

func (c *ParagraphsCmd) Run() error {
	if err := validation.ValidateInput("input", c.Input); err != nil {
		return err
	}
	doc, err := docx.Open(c.Input)
	if err != nil {
		return err
	}
	if c.Info {
		props, err := doc.Properties()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "# title: %s\n# creator: %s\n# last modified by: %s\n# revision: %s\n",
			props.Title, props.Creator, props.LastModifiedBy, props.Revision)
		fmt.Fprintf(stdout, "# paragraphs: %d\n# blake3: %s\n", doc.Len(), doc.Hash())
	}
	for _, p := range doc.Paragraphs() {
		text := p.Text()
		if text == "" && !c.Empty && c.Grep == "" {
			continue
		}
		if c.Grep != "" && !strings.Contains(text, c.Grep) {
			continue
		}
		if c.Style != "" && p.Style() != c.Style {
			continue
		}
		if style := p.Style(); style != "" {
			fmt.Fprintf(stdout, "%5d [%s] %s\n", p.Index(), style, text)
		} else {
			fmt.Fprintf(stdout, "%5d %s\n", p.Index(), text)
		}
	}
	return nil
}

// HistoryCmd lists journaled runs.
type HistoryCmd struct {
	ID    string `arg:"" optional:"" name:"run" help:"Run ID (or unique prefix) to show in detail"`
	Limit int    `short:"l" help:"Number of runs to list" default:"20"`
}

func (c *HistoryCmd) Run(g *Globals) error {
	if g.NoJournal || g.Journal == "" {
		return errors.New("history requires a journal; remove --no-journal or set --journal")
	}
	if _, err := os.Stat(g.Journal); err != nil {
		fmt.Fprintln(stdout, "No runs recorded.")
		return nil
	}
	j, err := journal.Open(g.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := context.Background()
	if c.ID != "" {
		id, entries, err := j.Entries(ctx, c.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Run %s\n", id)
		for _, e := range entries {
			fmt.Fprintf(stdout, "  %-8s %-12s %s\n", e.Kind, e.Rule, e.Description)
			if e.Before != e.After {
				fmt.Fprintf(stdout, "           %s\n", report.WordDiff(e.Before, e.After))
			}
		}
		return nil
	}

	runs, err := j.Runs(ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		target := r.Output
		if r.DryRun {
			target = "(dry run)"
		}
		fmt.Fprintf(stdout, "%s  %s  %-5s %3d changes %3d warnings  %s -> %s\n",
			shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Command,
			r.Changes, r.Warnings, r.Input, target)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RestoreCmd restores a document from a backup archive.
type RestoreCmd struct {
	Backup string `arg:"" help:"Backup archive (*.bak.tar.xz)" type:"existingfile"`
	Output string `short:"o" help:"Restore to this path instead of the original location"`
}

func (c *RestoreCmd) Run() error {
	m, err := archive.Restore(c.Backup, c.Output)
	if err != nil {
		return err
	}
	dst := c.Output
	if dst == "" {
		dst = m.Source
	}
	logging.Info("backup_restored", "backup", c.Backup, "destination", dst, "blake3", m.BLAKE3)
	fmt.Fprintf(stdout, "Restored %s (%d bytes, blake3 %s)\n", dst, m.Size, m.BLAKE3)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "docfix version %s\n", version)
	fmt.Fprintf(stdout, "journal driver: %s (%s)\n", info.Package, info.DriverType)
	return nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	opts := []kong.Option{
		kong.Name("docfix"),
		kong.Description("Apply ordered text corrections to .docx documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(config.Loader, config.Paths()...),
		kong.Vars{"journal": config.DefaultJournal()},
		kong.Bind(&cli.Globals),
	}
	return kong.New(cli, append(opts, options...)...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
