package help

import (
	"fmt"
	"strings"
	"time"
)

const manual = "Sweep-Vault Manual"

// page accumulates one man page.
type page struct {
	b strings.Builder
}

func newPage(title, date string) *page {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	p := &page{}
	fmt.Fprintf(&p.b, ".TH %s 1 %q %q %q\n", title, date, "sv "+Version, manual)
	return p
}

func (p *page) section(name string) { p.b.WriteString(".SH " + name + "\n") }

func (p *page) line(s string) { p.b.WriteString(s + "\n") }

// item writes a tagged paragraph; term is written bold.
func (p *page) item(term, desc string) {
	fmt.Fprintf(&p.b, ".TP\n.B %s\n%s\n", term, escapeRoff(desc))
}

func (p *page) paragraphs(text string) {
	blank := false
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			if !blank {
				p.line(".PP")
			}
			blank = true
			continue
		}
		blank = false
		p.line(escapeRoff(l))
	}
}

func (p *page) seeAlso(refs []string) {
	if len(refs) == 0 {
		return
	}
	p.section("SEE ALSO")
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = formatManRef(ref)
	}
	p.line(strings.Join(out, ",\n"))
}

// exitStatus documents the outcome-to-exit-code mapping every command shares.
func (p *page) exitStatus() {
	p.section("EXIT STATUS")
	p.item("0", "The operation succeeded.")
	p.item("2", "Nothing was done: the target already exists, is missing, or the request was out of range.")
	p.item("1", "The operation failed.")
}

// FormatRoff renders a subcommand as a section 1 man page. An empty date
// means today; pass a fixed date for reproducible output.
func FormatRoff(c Command, date string) string {
	p := newPage(strings.ToUpper(c.ManName()), date)

	p.section("NAME")
	p.line(fmt.Sprintf("%s \\- %s", c.ManName(), escapeRoff(c.Synopsis)))
	p.section("SYNOPSIS")
	p.line(".B " + escapeRoff(c.Usage))

	if c.Description != "" {
		p.section("DESCRIPTION")
		p.paragraphs(c.Description)
	}
	if len(c.Args) > 0 || len(c.Flags) > 0 {
		p.section("OPTIONS")
		for _, a := range c.Args {
			p.item(escapeRoff(a.Name), a.Desc)
		}
		for _, f := range c.Flags {
			p.item(escapeRoff(f.Name), f.Desc)
		}
	}
	if len(c.Examples) > 0 {
		p.section("EXAMPLES")
		p.line(".nf")
		for _, e := range c.Examples {
			p.line(escapeRoff(e))
		}
		p.line(".fi")
	}
	p.exitStatus()
	p.seeAlso(c.SeeAlso)
	return p.b.String()
}

// FormatRoffTopLevel renders sv.1, listing every subcommand.
func FormatRoffTopLevel(top Command, subs []Command, date string) string {
	p := newPage("SV", date)

	p.section("NAME")
	p.line("sv \\- " + escapeRoff(top.Synopsis))
	p.section("SYNOPSIS")
	p.line(".B sv\n.I command\n.RI [ options ]")

	p.section("DESCRIPTION")
	p.line(".B sv")
	p.line("(sweep-vault) unpacks raw instrument recordings into sweeps, composes")
	p.line("averaged, concatenated and overlaid analyses with plots, and extracts")
	p.line("windowed peaks from them.")

	p.section("COMMANDS")
	for _, s := range subs {
		p.item(`"`+escapeRoff(s.tableUsage())+`"`, s.Brief)
	}

	p.section("CONFIGURATION")
	p.line("Configuration file: ~/.config/sweep\\-vault/config.toml")
	p.line("Set SV_CONFIG to use another file.")
	p.exitStatus()

	refs := make([]string, len(subs))
	for i, s := range subs {
		refs[i] = s.ManName() + "(1)"
	}
	p.seeAlso(refs)
	return p.b.String()
}

// escapeRoff protects backslashes, line-leading dots and hyphens.
func escapeRoff(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n.", "\n\\&.")
	if strings.HasPrefix(s, ".") {
		s = `\&` + s
	}
	return strings.ReplaceAll(s, "-", `\-`)
}

// formatManRef turns "sv-peaks(1)" into ".BR sv\-peaks (1)".
func formatManRef(ref string) string {
	name, section, ok := strings.Cut(ref, "(")
	if !ok {
		return ".B " + escapeRoff(ref)
	}
	return fmt.Sprintf(".BR %s (%s", escapeRoff(name), section)
}
