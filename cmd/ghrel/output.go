package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/lipgloss"

	"github.com/samuelstevens/ghrel/internal/plan"
	"github.com/samuelstevens/ghrel/internal/service"
)

var (
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
)

// printer writes status lines to w. Styles come from a renderer bound to
// w, so output piped to a file or buffer carries no escape codes.
type printer struct {
	w       io.Writer
	changed lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:       w,
		changed: r.NewStyle().Foreground(colorGreen),
		ok:      r.NewStyle().Foreground(colorGray),
		warn:    r.NewStyle().Foreground(colorYellow),
		fail:    r.NewStyle().Foreground(colorRed).Bold(true),
		dim:     r.NewStyle().Foreground(colorGray),
	}
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) status(name string, style lipgloss.Style, msg string) {
	p.line("%s: %s", name, style.Render(msg))
}

// formatPath abbreviates the home directory to "~".
func formatPath(path string) string {
	rel, err := filepath.Rel(xdg.Home, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	if rel == "." {
		return "~"
	}
	return "~" + string(filepath.Separator) + rel
}

// syncReporter prints a sync run as it happens.
type syncReporter struct {
	p         *printer
	dryRun    bool
	warnToken bool
}

func (r *syncReporter) Started(packages int) {
	if packages == 0 {
		r.p.line("No packages found.")
		return
	}
	if r.warnToken {
		r.p.line("%s", r.p.warn.Render("Warning: No GITHUB_TOKEN set. API rate limited to 60 requests/hour."))
		r.p.line("  Set GITHUB_TOKEN to increase limit to 5,000/hour.")
		r.p.line("")
	}
}

func (r *syncReporter) Outcome(o service.Outcome) {
	if o.Orphan {
		r.p.status(o.Name, r.p.warn, "WARN orphan (use 'ghrel prune' to remove)")
		return
	}
	if o.Plan == nil {
		return
	}
	if msg := reasonWarning(o.Plan.Action.Reason); msg != "" {
		r.p.status(o.Name, r.p.warn, msg)
	}
	if o.Err != nil {
		return
	}

	style := r.p.changed
	if o.Plan.Action.Kind == plan.UpToDate {
		style = r.p.ok
	}
	r.p.status(o.Name, style, statusMessage(o, r.dryRun))
	if !r.dryRun {
		return
	}

	binary := o.Plan.BinaryPattern
	if binary == "" {
		binary = o.Plan.Asset.Name
	}
	r.p.line("  asset: %s", r.p.dim.Render(o.Plan.Asset.DownloadURL))
	r.p.line("  binary: %s -> %s", binary, formatPath(o.Plan.TargetPath))
}

func reasonWarning(reason plan.Reason) string {
	switch reason {
	case plan.NoReason:
		return ""
	case plan.BinaryMissing:
		return "WARN binary missing, re-downloading"
	case plan.ChecksumMismatch:
		return "WARN checksum mismatch, re-downloading"
	case plan.BinaryPathChanged:
		return "WARN binary path changed, re-downloading"
	}
	return "WARN re-downloading"
}

func statusMessage(o service.Outcome, dryRun bool) string {
	p := o.Plan
	var msg string
	switch p.Action.Kind {
	case plan.UpToDate:
		return "ok (up to date)"
	case plan.Install:
		msg = "installed " + p.DesiredVersion
		if dryRun {
			msg = "would install " + p.DesiredVersion
		}
	case plan.Update:
		msg = p.CurrentVersion + " -> " + p.DesiredVersion
	case plan.Reinstall:
		msg = "reinstalled " + p.DesiredVersion
		if dryRun {
			msg = "would reinstall " + p.DesiredVersion
		}
	default:
		msg = p.DesiredVersion
	}
	if o.NoVerify && !dryRun {
		msg += " (no verify hook)"
	}
	return msg
}

func (p *printer) failures(failures []service.Failure) {
	if len(failures) == 0 {
		return
	}
	p.line("")
	p.line("%s", p.fail.Render(fmt.Sprintf("Failed: %d package(s)", len(failures))))
	for _, f := range failures {
		msg := strings.ReplaceAll(f.Err.Error(), "\n", "\n    ")
		p.line("  %s: %s", f.Name, msg)
	}
}
