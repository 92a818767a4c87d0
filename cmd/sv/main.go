package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/suykerbuyk/sweep-vault/internal/analysis"
	"github.com/suykerbuyk/sweep-vault/internal/archive"
	"github.com/suykerbuyk/sweep-vault/internal/check"
	"github.com/suykerbuyk/sweep-vault/internal/config"
	"github.com/suykerbuyk/sweep-vault/internal/help"
	"github.com/suykerbuyk/sweep-vault/internal/index"
	"github.com/suykerbuyk/sweep-vault/internal/logging"
	"github.com/suykerbuyk/sweep-vault/internal/peaks"
	"github.com/suykerbuyk/sweep-vault/internal/render"
	"github.com/suykerbuyk/sweep-vault/internal/scaffold"
	"github.com/suykerbuyk/sweep-vault/internal/service"
	"github.com/suykerbuyk/sweep-vault/internal/stats"
	"github.com/suykerbuyk/sweep-vault/internal/trends"
	"github.com/suykerbuyk/sweep-vault/internal/watch"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, help.FormatUsage(help.TopLevel, help.Subcommands))
		os.Exit(1)
	}

	name, args := os.Args[1], os.Args[2:]
	if name == "index" && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = "index "+args[0], args[1:]
	}

	switch name {
	case "help", "--help", "-h":
		runHelp(args)
		return
	case "version", "--version":
		fmt.Printf("sv v%s (sweep-vault)\n", help.Version)
		return
	}

	if cmd, ok := help.Lookup(name); ok && hasFlag(args, "--help", "-h") {
		fmt.Print(help.FormatTerminal(cmd))
		return
	}

	if name == "init" {
		runInit(args)
		return
	}

	cfg := mustLoadConfig()
	if v := flagValue(args, "--metric"); v != "" {
		cfg.Peaks.Metric = v
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fatal("%v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch name {
	case "check":
		report := check.Run(ctx, cfg, service.OpenStore)
		fmt.Print(report.Format())
		if report.HasFailures() {
			os.Exit(1)
		}

	case "backup":
		runBackup(cfg, args)

	case "restore":
		pos := positional(args)
		if len(pos) != 2 {
			fatal("usage: %s", help.CmdRestore.Usage)
		}
		res, err := archive.Restore(pos[0], pos[1])
		finish(err)
		fmt.Printf("restored %d files (%s) to %s\n", res.Files, formatBytes(res.Bytes), config.CompressHome(pos[1]))

	case "index":
		fatal("usage: %s", help.CmdIndex.Usage)

	case "upload", "unpack", "analyse", "analyze", "peaks", "trends", "count", "list", "delete", "stats", "watch", "index rebuild":
		svc, err := service.Open(ctx, cfg, log)
		if err != nil {
			fatal("%v", err)
		}
		code := runService(ctx, svc, cfg, log, name, args)
		svc.Close()
		if code != 0 {
			log.Sync()
			os.Exit(code)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", name)
		fmt.Fprint(os.Stderr, help.FormatUsage(help.TopLevel, help.Subcommands))
		os.Exit(1)
	}
}

// runService dispatches the commands that need an open service and returns
// the exit code.
func runService(ctx context.Context, svc *service.Service, cfg config.Config, log *zap.Logger, name string, args []string) int {
	var err error
	switch name {
	case "upload":
		err = runUpload(ctx, svc, args)
	case "unpack":
		err = runUnpack(ctx, svc, args)
	case "analyse", "analyze":
		err = runAnalyse(ctx, svc, args)
	case "peaks":
		err = runPeaks(ctx, svc, args)
	case "trends":
		err = runTrends(ctx, svc, args)
	case "count":
		err = runCount(ctx, svc, args)
	case "list":
		err = runList(ctx, svc, args)
	case "delete":
		err = runDelete(ctx, svc, args)
	case "stats":
		err = runStats(ctx, svc, args)
	case "watch":
		err = runWatch(ctx, svc, cfg, log)
	case "index rebuild":
		err = runRebuild(ctx, svc, cfg, log)
	}
	return report(err)
}

// report prints the outcome of a failed operation. Refused requests exit
// 2, failures 1.
func report(err error) int {
	if err == nil {
		return 0
	}
	o := service.Report(err)
	fmt.Fprintf(os.Stderr, "sv: %s\n", o.Message)
	if o.Severity == service.Danger {
		return 1
	}
	return 2
}

// finish exits through report when err is set.
func finish(err error) {
	if code := report(err); code != 0 {
		os.Exit(code)
	}
}

func runHelp(args []string) {
	if len(args) == 0 {
		fmt.Print(help.FormatUsage(help.TopLevel, help.Subcommands))
		return
	}
	cmd, ok := help.Lookup(strings.Join(args, " "))
	if !ok {
		fatal("no help for %q", strings.Join(args, " "))
	}
	fmt.Print(help.FormatTerminal(cmd))
}

func runInit(args []string) {
	target := "sweep-vault"
	if pos := positional(args); len(pos) > 0 {
		target = pos[0]
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		fatal("%v", err)
	}
	res, err := scaffold.Init(abs, scaffold.Options{GitInit: hasFlag(args, "--git")})
	if err != nil {
		fatal("init: %v", err)
	}
	fmt.Printf("created data directory: %s (%d files, %d kept)\n",
		config.CompressHome(abs), len(res.Created), len(res.Kept))

	path, action, err := config.WriteDefault(abs)
	if err != nil {
		fatal("write config: %v", err)
	}
	fmt.Printf("config %s: %s\n", action, config.CompressHome(path))
}

func runUpload(ctx context.Context, svc *service.Service, args []string) error {
	pos := positional(args, "--date")
	date := flagValue(args, "--date")
	if len(pos) != 1 || date == "" {
		fatal("usage: %s", help.CmdUpload.Usage)
	}
	f, err := os.Open(pos[0])
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := svc.Upload(ctx, pos[0], f, date, hasFlag(args, "--extract"))
	if raw.Path != "" {
		fmt.Printf("uploaded: %s\n", raw.ID())
	}
	return err
}

func runUnpack(ctx context.Context, svc *service.Service, args []string) error {
	pos := positional(args)
	if len(pos) != 2 {
		fatal("usage: %s", help.CmdUnpack.Usage)
	}
	rec, err := svc.Unpack(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Printf("unpacked: %s (%d sweeps x %d samples)\n", rec.ID, rec.Sweeps, rec.Samples)
	return nil
}

func runAnalyse(ctx context.Context, svc *service.Service, args []string) error {
	valued := []string{"--mode", "--start", "--end", "--ylim"}
	pos := positional(args, valued...)
	modeName := flagValue(args, "--mode")
	if len(pos) != 1 || modeName == "" {
		fatal("usage: %s", help.CmdAnalyse.Usage)
	}
	rec, err := analysis.ParseRecording(pos[0])
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalid, err)
	}
	mode, err := analysis.ParseMode(modeName)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalid, err)
	}

	req := service.AnalyseRequest{Recording: rec, Mode: mode}
	if req.Start, err = intFlag(args, "--start", 0); err != nil {
		return err
	}
	if v := flagValue(args, "--end"); v != "" {
		if req.End, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%w: --end %q", service.ErrInvalid, v)
		}
	} else if req.End, err = svc.NumSweeps(ctx, rec); err != nil {
		return err
	}
	if v := flagValue(args, "--ylim"); v != "" {
		if req.YLim, err = parseYLim(v); err != nil {
			return err
		}
	}

	keys, err := svc.Analyse(ctx, req)
	for _, k := range keys {
		fmt.Println(k.Prefix())
	}
	if err == nil && len(keys) == 0 {
		fmt.Println("no sweeps selected")
	}
	return err
}

func runPeaks(ctx context.Context, svc *service.Service, args []string) error {
	valued := []string{"--origin", "--stride", "--width", "--count", "--metric"}
	pos := positional(args, valued...)
	if len(pos) != 1 {
		fatal("usage: %s", help.CmdPeaks.Usage)
	}
	sel, err := service.ParseSelection(pos[0])
	if err != nil {
		return err
	}

	var spec peaks.WindowSpec
	if spec.Origin, err = floatFlag(args, "--origin"); err != nil {
		return err
	}
	if spec.Stride, err = floatFlag(args, "--stride"); err != nil {
		return err
	}
	if spec.Width, err = floatFlag(args, "--width"); err != nil {
		return err
	}
	if spec.Count, err = intFlag(args, "--count", 1); err != nil {
		return err
	}

	res, err := svc.Peaks(ctx, sel, spec)
	if err != nil {
		return err
	}
	fmt.Println(res.DataKey)
	printPeaks(res.Summary, "  ")
	return nil
}

func runTrends(ctx context.Context, svc *service.Service, args []string) error {
	pos := positional(args, "--span")
	if len(pos) != 1 {
		fatal("usage: %s", help.CmdTrends.Usage)
	}
	sel, err := service.ParseSelection(pos[0])
	if err != nil {
		return err
	}
	span, err := intFlag(args, "--span", trends.DefaultSpan)
	if err != nil {
		return err
	}
	summary, err := svc.LoadPeaks(ctx, sel)
	if err != nil {
		return err
	}
	fmt.Print(trends.Format(trends.Compute(sel.Prefix(), summary, span)))
	return nil
}

func runCount(ctx context.Context, svc *service.Service, args []string) error {
	pos := positional(args)
	if len(pos) != 1 {
		fatal("usage: %s", help.CmdCount.Usage)
	}
	rec, err := analysis.ParseRecording(pos[0])
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalid, err)
	}
	n, err := svc.NumSweeps(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func runList(ctx context.Context, svc *service.Service, args []string) error {
	pos := positional(args)
	what := "recordings"
	if len(pos) > 0 {
		what = pos[0]
	}

	switch what {
	case "raw":
		files, err := svc.Raw()
		if err != nil {
			return err
		}
		date := ""
		for _, f := range files {
			if f.Date != date {
				date = f.Date
				fmt.Println(date)
			}
			fmt.Printf("  %s%s\n", f.Name, f.Ext)
		}

	case "recordings":
		recs, err := svc.Recordings(ctx)
		if err != nil {
			return err
		}
		for _, r := range recs {
			fmt.Printf("%-32s %6d sweeps  %s\n", r.ID, r.Sweeps, r.Version)
		}

	case "analyses":
		if len(pos) != 2 {
			fatal("usage: %s", help.CmdList.Usage)
		}
		rec, err := analysis.ParseRecording(pos[1])
		if err != nil {
			return fmt.Errorf("%w: %v", service.ErrInvalid, err)
		}
		items, err := svc.Analyses(ctx, rec)
		if err != nil {
			return err
		}
		for _, a := range items {
			fmt.Printf("%-8s %s\n", a.Mode, a.Key.Prefix())
			printPeaks(a.Peaks, "    ")
		}

	default:
		fatal("usage: %s", help.CmdList.Usage)
	}
	return nil
}

func runDelete(ctx context.Context, svc *service.Service, args []string) error {
	pos := positional(args)
	if len(pos) != 1 {
		fatal("usage: %s", help.CmdDelete.Usage)
	}
	if err := svc.Delete(ctx, pos[0]); err != nil {
		return err
	}
	fmt.Printf("deleted: %s\n", pos[0])
	return nil
}

func runStats(ctx context.Context, svc *service.Service, args []string) error {
	pos := positional(args)
	if len(pos) == 1 {
		rec, err := analysis.ParseRecording(pos[0])
		if err != nil {
			return fmt.Errorf("%w: %v", service.ErrInvalid, err)
		}
		m, err := svc.Matrix(ctx, rec)
		if err != nil {
			return err
		}
		fmt.Print(stats.FormatRecording(stats.Recording(rec.String(), m, svc.Instrument())))
		return nil
	}

	recs, err := svc.Recordings(ctx)
	if err != nil {
		return err
	}
	arts := make(map[string][]index.Artifact, len(recs))
	for _, r := range recs {
		a, err := svc.Index().Artifacts(ctx, r.ID)
		if err != nil {
			return err
		}
		arts[r.ID] = a
	}
	fmt.Print(stats.Format(stats.Compute(recs, arts)))
	return nil
}

func runWatch(ctx context.Context, svc *service.Service, cfg config.Config, log *zap.Logger) error {
	accept := func(ext string) bool { return svc.Readers().Supports("recording" + ext) }
	handle := func(ctx context.Context, date, file string) error {
		_, err := svc.Unpack(ctx, date, file)
		if errors.Is(err, service.ErrAlreadyUnpacked) {
			return nil
		}
		return err
	}
	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	w := watch.New(svc.RawDir(), debounce, accept, handle, log)

	fmt.Printf("watching %s (Ctrl-C to stop)\n", config.CompressHome(svc.RawDir()))
	err := w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runRebuild(ctx context.Context, svc *service.Service, cfg config.Config, log *zap.Logger) error {
	st, err := index.Rebuild(ctx, svc.Store(), svc.Index(), cfg.Sweep(), log)
	if err != nil {
		return err
	}
	fmt.Printf("catalog rebuilt: %d recordings, %d analyses (%d with peaks), %d keys skipped\n",
		st.Recordings, st.Artifacts, st.Peaks, st.Skipped)
	return nil
}

func runBackup(cfg config.Config, args []string) {
	name := flagValue(args, "--codec")
	if name == "" {
		name = cfg.Archive.Codec
	}
	c, err := archive.ParseCodec(name)
	if err != nil {
		fatal("%v", err)
	}
	now := time.Now()
	if archive.IsArchived(cfg.Archive.Dir, c, now) {
		fmt.Printf("replacing today's archive\n")
	}
	res, err := archive.Backup(cfg.DataDir, cfg.Archive.Dir, c, now)
	if err != nil {
		fatal("backup: %v", err)
	}
	fmt.Printf("archived %d files (%s) to %s\n", res.Files, formatBytes(res.Bytes), config.CompressHome(res.Path))
}

func printPeaks(summary map[string][]float64, indent string) {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	for _, k := range keys {
		vals := make([]string, len(summary[k]))
		for i, v := range summary[k] {
			vals[i] = strconv.FormatFloat(v, 'g', 4, 64)
		}
		fmt.Printf("%ssweep %s: %s\n", indent, k, strings.Join(vals, " "))
	}
}

func parseYLim(s string) (*render.YLim, error) {
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%w: --ylim %q, want lo,hi", service.ErrInvalid, s)
	}
	yMin, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	yMax, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err1 != nil || err2 != nil || !(yMin < yMax) {
		return nil, fmt.Errorf("%w: --ylim %q, want lo,hi with lo < hi", service.ErrInvalid, s)
	}
	return &render.YLim{Min: yMin, Max: yMax}, nil
}

func intFlag(args []string, flag string, def int) (int, error) {
	v := flagValue(args, flag)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", service.ErrInvalid, flag, v)
	}
	return n, nil
}

func floatFlag(args []string, flag string) (float64, error) {
	v := flagValue(args, flag)
	if v == "" {
		return 0, fmt.Errorf("%w: %s is required", service.ErrInvalid, flag)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", service.ErrInvalid, flag, v)
	}
	return f, nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func mustLoadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatal("load config: %v", err)
	}
	return cfg
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, flag+"="); ok {
			return v
		}
	}
	return ""
}

func hasFlag(args []string, flags ...string) bool {
	for _, a := range args {
		for _, f := range flags {
			if a == f {
				return true
			}
		}
	}
	return false
}

// positional returns the arguments that are neither flags nor the values
// of the valued flags listed.
func positional(args []string, valued ...string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--") {
			for _, v := range valued {
				if a == v {
					i++
					break
				}
			}
			continue
		}
		out = append(out, a)
	}
	return out
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "sv: "+format+"\n", args...)
	os.Exit(1)
}
