package help

import (
	"fmt"
	"strings"
	"testing"
)

// expectedTerminal maps command name to exact expected terminal output.
var expectedTerminal = map[string]string{
	"init": "sv init \u2014 create a new sweep-vault data directory\n" +
		"\n" +
		"Usage: sv init [path] [--git]\n" +
		"\n" +
		"Arguments:\n" +
		"  path       Target directory (default: ./sweep-vault)\n" +
		"\n" +
		"Flags:\n" +
		"  --git      Initialize a git repository in the new data directory\n" +
		"\n" +
		"Creates raw/, store/ and the .sweep-vault/ state directory along with\n" +
		"a README and a backup script. Also writes a default config to\n" +
		"~/.config/sweep-vault/config.toml pointing at the new directory.\n" +
		"\n" +
		"Existing files are left untouched, so init can adopt a directory that\n" +
		"already holds raw recordings.\n" +
		"\n" +
		"Examples:\n" +
		"  sv init                    Create ./sweep-vault\n" +
		"  sv init ~/lab/sweeps       Create at a specific path\n" +
		"  sv init --git              Create with git repo initialized\n",

	"count": "sv count \u2014 print the number of sweeps in a recording\n" +
		"\n" +
		"Usage: sv count <date/name>\n" +
		"\n" +
		"Arguments:\n" +
		"  date/name   Unpacked recording\n",

	"restore": "sv restore \u2014 extract a backup archive\n" +
		"\n" +
		"Usage: sv restore <archive> <dir>\n" +
		"\n" +
		"Arguments:\n" +
		"  archive   Archive written by sv backup\n" +
		"  dir       Destination directory\n" +
		"\n" +
		"Extracts the archive into dir. The codec is taken from the file\n" +
		"extension. Entries that would land outside dir are rejected.\n" +
		"\n" +
		"Run sv index rebuild afterwards if dir is the configured data directory.\n",

	"version": "sv version \u2014 print version\n" +
		"\n" +
		"Usage: sv version\n",
}

func TestFormatTerminal(t *testing.T) {
	for name, expected := range expectedTerminal {
		t.Run(name, func(t *testing.T) {
			cmd, ok := Lookup(name)
			if !ok {
				t.Fatalf("Lookup(%q) failed", name)
			}
			got := FormatTerminal(cmd)
			if got != expected {
				t.Errorf("FormatTerminal(%q) mismatch.\n--- expected ---\n%s\n--- got ---\n%s\n--- diff ---\n%s",
					name, quote(expected), quote(got), diff(expected, got))
			}
		})
	}
}

func TestFormatTerminal_FlagsOnePerLine(t *testing.T) {
	out := FormatTerminal(CmdPeaks)
	for _, f := range CmdPeaks.Flags {
		line := columns(f.Name, f.Desc, 2+len("--metric <name>")+3)
		if !strings.Contains(out, line+"\n") {
			t.Errorf("missing flag line %q in:\n%s", line, out)
		}
	}
}

func TestFormatUsage(t *testing.T) {
	out := FormatUsage(TopLevel, Subcommands)

	if !strings.HasPrefix(out, "sv vdev \u2014 sweep recording analysis\n") {
		t.Errorf("unexpected header: %q", strings.SplitN(out, "\n", 2)[0])
	}

	// Every brief starts in the same column.
	col := -1
	for _, c := range Subcommands {
		var line string
		for _, l := range strings.Split(out, "\n") {
			if strings.HasPrefix(l, "  "+c.tableUsage()+" ") {
				line = l
				break
			}
		}
		if line == "" {
			t.Errorf("usage table missing %q", c.tableUsage())
			continue
		}
		at := strings.Index(line, c.Brief)
		if col == -1 {
			col = at
		} else if at != col {
			t.Errorf("%s brief at column %d, want %d", c.Name, at, col)
		}
	}
	if !strings.Contains(out, "sv help [command]") {
		t.Error("usage table missing help entry")
	}
	if !strings.Contains(out, "~/.config/sweep-vault/config.toml") {
		t.Error("usage missing config path")
	}
}

func TestRegistryCompleteness(t *testing.T) {
	expectedNames := []string{
		"init", "upload", "unpack", "analyse", "peaks", "trends", "count", "list",
		"delete", "stats", "watch", "backup", "restore", "index", "check", "version",
	}
	if len(Subcommands) != len(expectedNames) {
		t.Fatalf("expected %d subcommands, got %d", len(expectedNames), len(Subcommands))
	}
	for i, name := range expectedNames {
		if Subcommands[i].Name != name {
			t.Errorf("Subcommands[%d].Name = %q, want %q", i, Subcommands[i].Name, name)
		}
		if Subcommands[i].Synopsis == "" {
			t.Errorf("Subcommands[%d] (%s) has empty Synopsis", i, name)
		}
		if Subcommands[i].Usage == "" {
			t.Errorf("Subcommands[%d] (%s) has empty Usage", i, name)
		}
		if Subcommands[i].Brief == "" {
			t.Errorf("Subcommands[%d] (%s) has empty Brief", i, name)
		}
	}
}

func TestLookup(t *testing.T) {
	if c, ok := Lookup("index rebuild"); !ok || c.Usage != "sv index rebuild" {
		t.Errorf("Lookup(index rebuild) = %+v, %v", c, ok)
	}
	if _, ok := Lookup("hook"); ok {
		t.Error("Lookup(hook) should fail")
	}
}

func TestManName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "sv"},
		{"init", "sv-init"},
		{"analyse", "sv-analyse"},
		{"index rebuild", "sv-index-rebuild"},
	}
	for _, tt := range tests {
		c := Command{Name: tt.name}
		if got := c.ManName(); got != tt.want {
			t.Errorf("Command{Name: %q}.ManName() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEscapeRoff(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`simple text`, `simple text`},
		{`back\slash`, `back\\slash`},
		{`.leading dot`, `\&.leading dot`},
		{"line1\n.line2", "line1\n\\&.line2"},
		{`--flag`, `\-\-flag`},
		{`a-b`, `a\-b`},
		{`.sweep-vault/catalog.db`, `\&.sweep\-vault/catalog.db`},
	}
	for _, tt := range tests {
		got := escapeRoff(tt.input)
		if got != tt.want {
			t.Errorf("escapeRoff(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatRoffStructure(t *testing.T) {
	fixedDate := "2026-02-27"

	allCmds := append(append([]Command{}, Subcommands...), IndexSubcommands...)
	for _, cmd := range allCmds {
		t.Run(cmd.Name, func(t *testing.T) {
			out := FormatRoff(cmd, fixedDate)

			required := []string{".TH", ".SH NAME", ".SH SYNOPSIS"}
			for _, section := range required {
				if !strings.Contains(out, section) {
					t.Errorf("FormatRoff(%q) missing required section %q", cmd.Name, section)
				}
			}

			expectedTH := strings.ToUpper(cmd.ManName())
			if !strings.Contains(out, ".TH "+expectedTH) {
				t.Errorf("FormatRoff(%q) .TH should contain %q", cmd.Name, expectedTH)
			}

			if cmd.Description != "" && !strings.Contains(out, ".SH DESCRIPTION") {
				t.Errorf("FormatRoff(%q) has Description but missing .SH DESCRIPTION", cmd.Name)
			}
			if (len(cmd.Args) > 0 || len(cmd.Flags) > 0) && !strings.Contains(out, ".SH OPTIONS") {
				t.Errorf("FormatRoff(%q) has Args/Flags but missing .SH OPTIONS", cmd.Name)
			}
			if len(cmd.Examples) > 0 && !strings.Contains(out, ".SH EXAMPLES") {
				t.Errorf("FormatRoff(%q) has Examples but missing .SH EXAMPLES", cmd.Name)
			}
			if len(cmd.SeeAlso) > 0 && !strings.Contains(out, ".SH SEE ALSO") {
				t.Errorf("FormatRoff(%q) has SeeAlso but missing .SH SEE ALSO", cmd.Name)
			}
		})
	}
}

func TestFormatRoffTopLevelStructure(t *testing.T) {
	fixedDate := "2026-02-27"
	out := FormatRoffTopLevel(TopLevel, Subcommands, fixedDate)

	required := []string{
		".TH SV 1",
		".SH NAME",
		".SH SYNOPSIS",
		".SH DESCRIPTION",
		".SH COMMANDS",
		".SH CONFIGURATION",
		".SH EXIT STATUS",
		".SH SEE ALSO",
	}
	for _, section := range required {
		if !strings.Contains(out, section) {
			t.Errorf("FormatRoffTopLevel missing section %q", section)
		}
	}

	for _, cmd := range Subcommands {
		escaped := escapeRoff(cmd.Brief)
		if !strings.Contains(out, escaped) {
			t.Errorf("FormatRoffTopLevel missing subcommand brief %q (escaped: %q)", cmd.Brief, escaped)
		}
	}
}

func TestFormatRoffEscapesDescription(t *testing.T) {
	cmd := Command{
		Name:        "x",
		Synopsis:    "test",
		Usage:       "sv x",
		Description: "State lives in\n.sweep-vault/catalog.db",
	}
	out := FormatRoff(cmd, "2026-02-27")
	if strings.Contains(out, "\n.sweep-vault") {
		t.Error("FormatRoff did not escape leading dot in .sweep-vault")
	}
	if !strings.Contains(out, "\\&.sweep\\-vault") {
		t.Errorf("escaped line missing:\n%s", out)
	}
}

func TestFormatManRef(t *testing.T) {
	tests := []struct{ ref, want string }{
		{"sv-peaks(1)", ".BR sv\\-peaks (1)"},
		{"sv(1)", ".BR sv (1)"},
		{"tar", ".B tar"},
	}
	for _, tt := range tests {
		if got := formatManRef(tt.ref); got != tt.want {
			t.Errorf("formatManRef(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestFormatRoffParagraphs(t *testing.T) {
	cmd := Command{Name: "x", Usage: "sv x", Description: "one\n\n\ntwo"}
	out := FormatRoff(cmd, "2026-02-27")
	if !strings.Contains(out, "one\n.PP\ntwo\n") {
		t.Errorf("blank lines should collapse into one .PP:\n%s", out)
	}
}

// quote shows a string with escape sequences visible.
func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

func TestFormatTerminal_IndexSubcommands(t *testing.T) {
	for _, cmd := range IndexSubcommands {
		t.Run(cmd.Name, func(t *testing.T) {
			out := FormatTerminal(cmd)
			prefix := fmt.Sprintf("sv %s \u2014 %s\n", cmd.Name, cmd.Synopsis)
			if !strings.HasPrefix(out, prefix) {
				t.Errorf("FormatTerminal(%q) header mismatch.\nwant prefix: %q\ngot:         %q", cmd.Name, prefix, out[:min(len(out), len(prefix)+20)])
			}
			if !strings.Contains(out, "Usage: "+cmd.Usage) {
				t.Errorf("FormatTerminal(%q) missing usage line", cmd.Name)
			}
			if cmd.Description != "" && !strings.Contains(out, cmd.Description) {
				t.Errorf("FormatTerminal(%q) missing description", cmd.Name)
			}
		})
	}
}

// diff shows a line-by-line comparison highlighting the first difference.
func diff(expected, got string) string {
	el := strings.Split(expected, "\n")
	gl := strings.Split(got, "\n")
	max := len(el)
	if len(gl) > max {
		max = len(gl)
	}
	var b strings.Builder
	for i := 0; i < max; i++ {
		var e, g string
		if i < len(el) {
			e = el[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if e != g {
			fmt.Fprintf(&b, "! line %d:\n  exp: %q\n  got: %q\n", i+1, e, g)
		}
	}
	return b.String()
}
