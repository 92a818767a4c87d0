package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// svBinary is the path to the compiled sv binary, set by TestMain.
var svBinary string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	tmpDir, err := os.MkdirTemp("", "sv-integration-build-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
		os.Exit(1)
	}

	svBinary = filepath.Join(tmpDir, "sv")
	cmd := exec.Command("go", "build", "-o", svBinary, ".")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build sv binary: %v\n", err)
		os.RemoveAll(tmpDir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// fixtureRows holds four channels of three samples; unpacked it is the
// sweeps [1 1 1 1], [3 3 3 3] and [5 6 7 8].
const fixtureRows = `[[1,3,5],[1,3,6],[1,3,7],[1,3,8]]`

func runSV(t *testing.T, env []string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	cmd := exec.Command(svBinary, args...)
	cmd.Env = env
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	default:
		t.Fatalf("run sv %s: %v", strings.Join(args, " "), err)
	}
	return outBuf.String(), errBuf.String(), code
}

func mustRunSV(t *testing.T, env []string, args ...string) string {
	t.Helper()
	stdout, stderr, code := runSV(t, env, args...)
	if code != 0 {
		t.Fatalf("sv %s exited %d\nstdout: %s\nstderr: %s", strings.Join(args, " "), code, stdout, stderr)
	}
	return stdout
}

func buildEnv(home, xdgConfigHome string) []string {
	return []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + home,
		"XDG_CONFIG_HOME=" + xdgConfigHome,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func assertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: expected to contain %q, got:\n%s", msg, substr, s)
	}
}

func TestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	home := t.TempDir()
	xdgConfigHome := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "lab")
	fixtureDir := t.TempDir()

	env := buildEnv(home, xdgConfigHome)
	storeDir := filepath.Join(dataDir, "store")

	fixture := filepath.Join(fixtureDir, "cell3.json")
	if err := os.WriteFile(fixture, []byte(fixtureRows), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	const avrgKey = "2024-03-01/cell3/avrg-0-3_cell3"

	t.Run("init", func(t *testing.T) {
		stdout := mustRunSV(t, env, "init", dataDir)
		assertContains(t, stdout, "created data directory", "init stdout")
		assertContains(t, stdout, "config created", "init config")

		if !fileExists(filepath.Join(dataDir, "README.md")) {
			t.Error("README.md not created")
		}
		cfg, err := os.ReadFile(filepath.Join(xdgConfigHome, "sweep-vault", "config.toml"))
		if err != nil {
			t.Fatalf("config.toml not written: %v", err)
		}
		assertContains(t, string(cfg), "data_dir", "config content")
	})

	t.Run("upload_extract", func(t *testing.T) {
		stdout := mustRunSV(t, env, "upload", fixture, "--date", "2024-03-01", "--extract")
		assertContains(t, stdout, "uploaded: 2024-03-01/cell3", "upload stdout")
		if !fileExists(filepath.Join(dataDir, "raw", "2024-03-01", "cell3.json")) {
			t.Error("raw file not copied")
		}
		if !fileExists(filepath.Join(storeDir, "2024-03-01", "cell3", "sweeps.json")) {
			t.Error("sweeps.json not stored")
		}
	})

	t.Run("upload_twice_refused", func(t *testing.T) {
		_, stderr, code := runSV(t, env, "upload", fixture, "--date", "2024-03-01")
		if code != 2 {
			t.Errorf("exit code = %d, want 2", code)
		}
		assertContains(t, stderr, "sv: ", "refusal message")
		assertContains(t, stderr, "already exists", "refusal message")
	})

	t.Run("unpack_twice_refused", func(t *testing.T) {
		_, stderr, code := runSV(t, env, "unpack", "2024-03-01", "cell3.json")
		if code != 2 {
			t.Errorf("exit code = %d, want 2", code)
		}
		assertContains(t, stderr, "unpacked data already exists", "unpack refusal")
	})

	t.Run("count", func(t *testing.T) {
		stdout := mustRunSV(t, env, "count", "2024-03-01/cell3")
		if strings.TrimSpace(stdout) != "3" {
			t.Errorf("count = %q, want 3", stdout)
		}
	})

	t.Run("analyse_average", func(t *testing.T) {
		stdout := mustRunSV(t, env, "analyse", "2024-03-01/cell3", "--mode", "avrg", "--start", "0", "--end", "3")
		assertContains(t, stdout, avrgKey, "analyse stdout")
		for _, ext := range []string{".json", ".png", ".svg"} {
			if !fileExists(filepath.Join(storeDir, filepath.FromSlash(avrgKey)+ext)) {
				t.Errorf("%s%s not written", avrgKey, ext)
			}
		}
	})

	t.Run("analyse_all_defaults_to_every_sweep", func(t *testing.T) {
		stdout := mustRunSV(t, env, "analyse", "2024-03-01/cell3", "--mode", "all", "--ylim", "-1,10")
		for _, want := range []string{"sweep-00_cell3", "sweep-01_cell3", "sweep-02_cell3"} {
			assertContains(t, stdout, want, "analyse all stdout")
		}
	})

	t.Run("analyse_out_of_range", func(t *testing.T) {
		_, _, code := runSV(t, env, "analyse", "2024-03-01/cell3", "--mode", "inrow", "--start", "0", "--end", "9")
		if code != 2 {
			t.Errorf("exit code = %d, want 2", code)
		}
	})

	t.Run("peaks", func(t *testing.T) {
		stdout := mustRunSV(t, env, "peaks", avrgKey,
			"--origin", "0", "--stride", "0.0001", "--width", "0.0001", "--count", "2")
		assertContains(t, stdout, avrgKey+"_plug/peaks/data.json", "peaks stdout")
		assertContains(t, stdout, "sweep 0:", "peaks summary")
		if !fileExists(filepath.Join(storeDir, filepath.FromSlash(avrgKey)+"_plug", "peaks", "data.json")) {
			t.Error("peaks data.json not written")
		}

		stdout = mustRunSV(t, env, "trends", avrgKey)
		assertContains(t, stdout, "Overview (1 sweeps, 2 windows, span 4)", "trends stdout")
	})

	t.Run("list", func(t *testing.T) {
		stdout := mustRunSV(t, env, "list")
		assertContains(t, stdout, "2024-03-01/cell3", "list recordings")

		stdout = mustRunSV(t, env, "list", "raw")
		assertContains(t, stdout, "cell3.json", "list raw")

		stdout = mustRunSV(t, env, "list", "analyses", "2024-03-01/cell3")
		assertContains(t, stdout, avrgKey, "list analyses")
		assertContains(t, stdout, "sweep 0:", "list analyses peaks")
	})

	t.Run("stats", func(t *testing.T) {
		stdout := mustRunSV(t, env, "stats")
		assertContains(t, stdout, "Overview", "stats")
		stdout = mustRunSV(t, env, "stats", "2024-03-01/cell3")
		assertContains(t, stdout, "samples/sweep", "recording stats")
	})

	t.Run("delete_analysis", func(t *testing.T) {
		stdout := mustRunSV(t, env, "delete", avrgKey)
		assertContains(t, stdout, "deleted", "delete stdout")
		if fileExists(filepath.Join(storeDir, filepath.FromSlash(avrgKey)+".json")) {
			t.Error("analysis JSON survived delete")
		}
		_, _, code := runSV(t, env, "delete", avrgKey)
		if code != 2 {
			t.Errorf("second delete exit code = %d, want 2", code)
		}
	})

	t.Run("index_rebuild", func(t *testing.T) {
		stdout := mustRunSV(t, env, "index", "rebuild")
		assertContains(t, stdout, "catalog rebuilt: 1 recordings, 3 analyses", "rebuild stdout")
	})

	t.Run("check", func(t *testing.T) {
		stdout := mustRunSV(t, env, "check")
		assertContains(t, stdout, "sv check", "check header")
		assertContains(t, stdout, "0 failure", "check summary")
	})

	t.Run("backup_restore", func(t *testing.T) {
		stdout := mustRunSV(t, env, "backup", "--codec", "gzip")
		assertContains(t, stdout, "archived", "backup stdout")

		matches, _ := filepath.Glob(filepath.Join(home, "sweep-vault-backups", "*.tar.gz"))
		if len(matches) != 1 {
			t.Fatalf("archives = %v, want one .tar.gz", matches)
		}

		dest := t.TempDir()
		stdout = mustRunSV(t, env, "restore", matches[0], dest)
		assertContains(t, stdout, "restored", "restore stdout")
		if !fileExists(filepath.Join(dest, "raw", "2024-03-01", "cell3.json")) {
			t.Error("raw file not restored")
		}
	})

	t.Run("help_and_version", func(t *testing.T) {
		stdout := mustRunSV(t, env, "version")
		assertContains(t, stdout, "sweep-vault", "version")
		stdout = mustRunSV(t, env, "help", "peaks")
		assertContains(t, stdout, "Usage: sv peaks", "help peaks")
		stdout = mustRunSV(t, env, "analyse", "--help")
		assertContains(t, stdout, "--ylim", "analyse --help")
	})

	t.Run("unknown_command", func(t *testing.T) {
		_, stderr, code := runSV(t, env, "frobnicate")
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
		assertContains(t, stderr, "unknown command", "unknown stderr")
	})
}
