package help

import "strings"

// Version is the sv release version, set at build time via -ldflags.
// Defaults to "dev" when built without version injection (e.g. `go run`).
var Version = "dev"

// Flag describes a command-line flag.
type Flag struct {
	Name string // e.g. "--extract" or "--date <date>"
	Desc string
}

// Arg describes a positional argument.
type Arg struct {
	Name     string // e.g. "file" or "date/name"
	Desc     string
	Optional bool
}

// Command describes an sv subcommand (or the top-level binary when Name is "").
type Command struct {
	Name        string   // "init", "analyse", etc; "" for top-level
	Synopsis    string   // one-line description (lowercase, for --help header)
	Brief       string   // short description for usage table (capitalized)
	Usage       string   // full usage line, e.g. "sv init [path] [--git]"
	TableUsage  string   // shortened usage for the top-level table (if different from Usage)
	Args        []Arg
	Flags       []Flag
	Description string   // multi-line prose (stored verbatim)
	Examples    []string // one per line, without leading 2-space indent
	SeeAlso     []string // man page cross-refs, e.g. "sv(1)"
}

// tableUsage returns TableUsage if set, otherwise Usage.
func (c Command) tableUsage() string {
	if c.TableUsage != "" {
		return c.TableUsage
	}
	return c.Usage
}

// ManName returns the man page name: "sv" for top-level, "sv-<name>" for subs.
// Spaces in Name are replaced with hyphens ("index rebuild" becomes "sv-index-rebuild").
func (c Command) ManName() string {
	if c.Name == "" {
		return "sv"
	}
	return "sv-" + strings.ReplaceAll(c.Name, " ", "-")
}

// TopLevel is the top-level sv command (used by FormatUsage).
var TopLevel = Command{
	Name:     "",
	Synopsis: "sweep recording analysis",
}

var CmdInit = Command{
	Name:     "init",
	Synopsis: "create a new sweep-vault data directory",
	Brief:    "Create a data directory (default: ./sweep-vault)",
	Usage:    "sv init [path] [--git]",
	Args: []Arg{
		{Name: "path", Desc: "Target directory (default: ./sweep-vault)", Optional: true},
	},
	Flags: []Flag{
		{Name: "--git", Desc: "Initialize a git repository in the new data directory"},
	},
	Description: `Creates raw/, store/ and the .sweep-vault/ state directory along with
a README and a backup script. Also writes a default config to
~/.config/sweep-vault/config.toml pointing at the new directory.

Existing files are left untouched, so init can adopt a directory that
already holds raw recordings.`,
	Examples: []string{
		"sv init                    Create ./sweep-vault",
		"sv init ~/lab/sweeps       Create at a specific path",
		"sv init --git              Create with git repo initialized",
	},
	SeeAlso: []string{"sv(1)", "sv-upload(1)", "sv-check(1)"},
}

var CmdUpload = Command{
	Name:       "upload",
	Synopsis:   "copy a raw recording into the data directory",
	Brief:      "Upload a raw recording",
	Usage:      "sv upload <file> --date <date> [--extract]",
	TableUsage: "sv upload <file> --date D",
	Args: []Arg{
		{Name: "file", Desc: "Instrument export (.json or .parquet)"},
	},
	Flags: []Flag{
		{Name: "--date <date>", Desc: "Recording date, used as the raw/ subdirectory"},
		{Name: "--extract", Desc: "Unpack the recording into sweeps right away"},
	},
	Description: `Copies file to raw/<date>/<name> with a sanitized name. Refuses
unsupported extensions and never overwrites an existing raw file.

With --extract the rows are transposed into sweeps and stored as
<date>/<name>/sweeps.json.`,
	Examples: []string{
		"sv upload cell3.json --date 2024-03-01",
		"sv upload run.parquet --date 2024-03-01 --extract",
	},
	SeeAlso: []string{"sv(1)", "sv-unpack(1)", "sv-watch(1)"},
}

var CmdUnpack = Command{
	Name:     "unpack",
	Synopsis: "transpose a raw recording into sweeps",
	Brief:    "Unpack a raw recording into sweeps",
	Usage:    "sv unpack <date> <file>",
	Args: []Arg{
		{Name: "date", Desc: "Date directory under raw/"},
		{Name: "file", Desc: "Raw file name, with or without extension"},
	},
	Description: `Reads the raw rows, transposes them so that each sweep holds one
sample per row, and stores the matrix under <date>/<name>/sweeps.json.
The sweep count is cached in the catalog.

A recording is unpacked once. Delete it first to unpack it again.`,
	Examples: []string{
		"sv unpack 2024-03-01 cell3.json",
	},
	SeeAlso: []string{"sv(1)", "sv-upload(1)", "sv-count(1)"},
}

var CmdAnalyse = Command{
	Name:       "analyse",
	Synopsis:   "compose sweeps into an analysis",
	Brief:      "Run an analysis on a sweep range",
	Usage:      "sv analyse <date/name> --mode <mode> --start <n> --end <n> [--ylim <lo,hi>]",
	TableUsage: "sv analyse <date/name> --mode M",
	Args: []Arg{
		{Name: "date/name", Desc: "Unpacked recording"},
	},
	Flags: []Flag{
		{Name: "--mode <mode>", Desc: "all, avrg, inrow or stacked"},
		{Name: "--start <n>", Desc: "First sweep (default: 0)"},
		{Name: "--end <n>", Desc: "One past the last sweep (default: sweep count)"},
		{Name: "--ylim <lo,hi>", Desc: "Fix the plot's vertical axis"},
	},
	Description: `Selects sweeps [start, end) and composes them:

  avrg      one averaged sweep
  inrow     the sweeps laid end to end
  all       one artifact per sweep
  stacked   the sweeps overlaid on one time axis

Each artifact is stored as JSON with a .png and .svg plot beside it.
Re-running an analysis overwrites its artifacts.`,
	Examples: []string{
		"sv analyse 2024-03-01/cell3 --mode avrg --start 0 --end 10",
		"sv analyse 2024-03-01/cell3 --mode all --ylim -1,1",
	},
	SeeAlso: []string{"sv(1)", "sv-peaks(1)", "sv-list(1)"},
}

var CmdPeaks = Command{
	Name:       "peaks",
	Synopsis:   "extract windowed peaks from an analysis",
	Brief:      "Extract peaks from an analysis",
	Usage:      "sv peaks <key> --origin <s> --stride <s> --width <s> --count <n> [--metric <name>]",
	TableUsage: "sv peaks <key> --origin O ...",
	Args: []Arg{
		{Name: "key", Desc: "Analysis key, e.g. 2024-03-01/cell3/avrg-0-10_cell3"},
	},
	Flags: []Flag{
		{Name: "--origin <s>", Desc: "Start time of the first window"},
		{Name: "--stride <s>", Desc: "Time between window starts"},
		{Name: "--width <s>", Desc: "Window length"},
		{Name: "--count <n>", Desc: "Number of windows"},
		{Name: "--metric <name>", Desc: "amplitude, baseline or relative (default: from config)"},
	},
	Description: `Finds the minimum and maximum of every window in every sweep of the
analysis and computes the metric from them. Results go to
<key>_plug/peaks/data.json, with one marked plot per sweep.

Times are in seconds. A window that runs past the end of a sweep is
an error.`,
	Examples: []string{
		"sv peaks 2024-03-01/cell3/avrg-0-10_cell3 --origin 0.01 --stride 0.02 --width 0.002 --count 5",
	},
	SeeAlso: []string{"sv(1)", "sv-analyse(1)"},
}

var CmdTrends = Command{
	Name:       "trends",
	Synopsis:   "show how peak metrics drift across sweeps",
	Brief:      "Show peak metric drift across sweeps",
	Usage:      "sv trends <key> [--span <n>]",
	TableUsage: "sv trends <key>",
	Args: []Arg{
		{Name: "key", Desc: "Analysis key with peak data"},
	},
	Flags: []Flag{
		{Name: "--span <n>", Desc: "Rolling window in sweeps (default: 4)"},
	},
	Description: `Reads the stored peak data of an analysis and follows each window's
metric from sweep to sweep. A rolling average over span sweeps is
shown next to every value.

Sweeps more than 1.5 rolling standard deviations from the average are
flagged as spikes or dips. The direction compares the mean of the last
span sweeps with the span before; changes under 10% count as stable.`,
	Examples: []string{
		"sv trends 2024-03-01/cell3/stacked-0-40_cell3",
		"sv trends 2024-03-01/cell3/stacked-0-40_cell3 --span 8",
	},
	SeeAlso: []string{"sv(1)", "sv-peaks(1)"},
}

var CmdCount = Command{
	Name:     "count",
	Synopsis: "print the number of sweeps in a recording",
	Brief:    "Print a recording's sweep count",
	Usage:    "sv count <date/name>",
	Args: []Arg{
		{Name: "date/name", Desc: "Unpacked recording"},
	},
	SeeAlso: []string{"sv(1)", "sv-unpack(1)"},
}

var CmdList = Command{
	Name:       "list",
	Synopsis:   "list raw files, recordings or analyses",
	Brief:      "List raw files, recordings or analyses",
	Usage:      "sv list [raw | recordings | analyses <date/name>]",
	TableUsage: "sv list [raw | ...]",
	Description: `Without arguments lists unpacked recordings from the catalog.

  raw                    raw files under raw/, grouped by date
  recordings             unpacked recordings with sweep counts
  analyses <date/name>   analyses of a recording and their peaks`,
	Examples: []string{
		"sv list raw",
		"sv list analyses 2024-03-01/cell3",
	},
	SeeAlso: []string{"sv(1)", "sv-delete(1)"},
}

var CmdDelete = Command{
	Name:     "delete",
	Synopsis: "remove recordings or analyses",
	Brief:    "Delete a date, recording or analysis",
	Usage:    "sv delete <key>",
	Args: []Arg{
		{Name: "key", Desc: "A date, date/name, analysis key or plugin dir"},
	},
	Description: `Deletes by key depth:

  date                     every raw file and artifact of that date
  date/name                the raw file and all artifacts of the recording
  date/name/analysis       the analysis JSON, its plots and plugin results
  date/name/analysis_plug  only the plugin results

Empty directories left behind are removed.`,
	Examples: []string{
		"sv delete 2024-03-01/cell3/avrg-0-10_cell3",
		"sv delete 2024-03-01/cell3",
	},
	SeeAlso: []string{"sv(1)", "sv-list(1)"},
}

var CmdStats = Command{
	Name:       "stats",
	Synopsis:   "show catalog or recording statistics",
	Brief:      "Show catalog or recording statistics",
	Usage:      "sv stats [date/name]",
	Args: []Arg{
		{Name: "date/name", Desc: "Show signal statistics for one recording", Optional: true},
	},
	Description: `Without arguments summarizes the catalog: recordings, sweeps and
analyses per date, instrument version and mode.

With a recording, loads its sweeps and reports shape, duration and
signal extremes.`,
	Examples: []string{
		"sv stats",
		"sv stats 2024-03-01/cell3",
	},
	SeeAlso: []string{"sv(1)", "sv-index(1)"},
}

var CmdWatch = Command{
	Name:     "watch",
	Synopsis: "unpack new raw recordings as they arrive",
	Brief:    "Watch raw/ and unpack new recordings",
	Usage:    "sv watch",
	Description: `Watches raw/ and its date directories. Each supported file is
unpacked once it has been quiet for watch.debounce_ms milliseconds.
Failures are logged and watching continues. Stop with Ctrl-C.`,
	SeeAlso: []string{"sv(1)", "sv-upload(1)", "sv-unpack(1)"},
}

var CmdBackup = Command{
	Name:       "backup",
	Synopsis:   "archive the data directory",
	Brief:      "Archive the data directory",
	Usage:      "sv backup [--codec <name>]",
	TableUsage: "sv backup [--codec C]",
	Flags: []Flag{
		{Name: "--codec <name>", Desc: "zstd, gzip, snappy, brotli, lz4 or none (default: from config)"},
	},
	Description: `Writes archive.dir/YYYY_Mon_DD_.tar.<ext> holding raw/, store/ and the
catalog. One archive per day and codec; running backup again on the
same day replaces that day's archive.`,
	Examples: []string{
		"sv backup",
		"sv backup --codec gzip",
	},
	SeeAlso: []string{"sv(1)", "sv-restore(1)"},
}

var CmdRestore = Command{
	Name:     "restore",
	Synopsis: "extract a backup archive",
	Brief:    "Restore a backup archive",
	Usage:    "sv restore <archive> <dir>",
	Args: []Arg{
		{Name: "archive", Desc: "Archive written by sv backup"},
		{Name: "dir", Desc: "Destination directory"},
	},
	Description: `Extracts the archive into dir. The codec is taken from the file
extension. Entries that would land outside dir are rejected.

Run sv index rebuild afterwards if dir is the configured data directory.`,
	SeeAlso: []string{"sv(1)", "sv-backup(1)", "sv-index-rebuild(1)"},
}

var CmdIndex = Command{
	Name:       "index",
	Synopsis:   "manage the recording catalog",
	Brief:      "Manage the recording catalog",
	Usage:      "sv index rebuild",
	TableUsage: "sv index rebuild",
	Description: `The catalog in .sweep-vault/catalog.db caches recordings, sweep
counts and analyses. The store stays the source of truth.

Subcommands:
  sv index rebuild   Rebuild the catalog from store keys`,
	SeeAlso: []string{"sv(1)", "sv-index-rebuild(1)"},
}

var CmdCheck = Command{
	Name:     "check",
	Synopsis: "validate config, data directory and store",
	Brief:    "Validate config, data directory and store",
	Usage:    "sv check",
	Description: `Runs diagnostic checks and prints a pass/warn/FAIL report:
  - Config file location and validity
  - Data directory exists
  - Raw files and their formats
  - Catalog readable
  - S3 credentials (s3 backend only)
  - Store write and read back
  - Peak metric and render settings

Exit code 0 if all checks pass or warn, 1 if any check fails.`,
	SeeAlso: []string{"sv(1)", "sv-init(1)"},
}

var CmdVersion = Command{
	Name:     "version",
	Synopsis: "print version",
	Brief:    "Print version",
	Usage:    "sv version",
	SeeAlso:  []string{"sv(1)"},
}

var CmdIndexRebuild = Command{
	Name:     "index rebuild",
	Synopsis: "rebuild the catalog from the store",
	Brief:    "Rebuild the catalog from the store",
	Usage:    "sv index rebuild",
	Description: `Lists every key in the store and recreates the recordings and
analyses tables. Sweep counts are read from each sweeps.json. Instrument
version and unpack time survive from the old catalog when present.

Keys that are not sweep-vault artifacts are skipped and counted.`,
	SeeAlso: []string{"sv(1)", "sv-index(1)", "sv-restore(1)"},
}

// IndexSubcommands is the ordered list of index sub-subcommands.
var IndexSubcommands = []Command{
	CmdIndexRebuild,
}

// Subcommands is the ordered list of all subcommands.
var Subcommands = []Command{
	CmdInit,
	CmdUpload,
	CmdUnpack,
	CmdAnalyse,
	CmdPeaks,
	CmdTrends,
	CmdCount,
	CmdList,
	CmdDelete,
	CmdStats,
	CmdWatch,
	CmdBackup,
	CmdRestore,
	CmdIndex,
	CmdCheck,
	CmdVersion,
}

// Lookup finds a subcommand by name, including index sub-subcommands.
func Lookup(name string) (Command, bool) {
	for _, c := range Subcommands {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range IndexSubcommands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}
