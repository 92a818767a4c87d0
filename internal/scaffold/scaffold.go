// Package scaffold lays out a fresh sweep-vault data directory.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templates embed.FS

// StateDir is the hidden directory that holds the catalog.
const StateDir = ".sweep-vault"

// Options controls scaffold behavior.
type Options struct {
	GitInit bool // run git init after scaffolding
}

// Result lists template files by outcome, as slash paths relative to the
// data directory.
type Result struct {
	Created []string
	Kept    []string
}

// Init lays out a data directory at targetPath. Files already present,
// such as raw recordings or an edited README, are kept as they are.
func Init(targetPath string, opts Options) (Result, error) {
	var res Result
	root, err := filepath.Abs(targetPath)
	if err != nil {
		return res, fmt.Errorf("resolve path: %w", err)
	}
	if dirExists(filepath.Join(root, StateDir)) {
		return res, fmt.Errorf("%s already contains %s/, refusing to overwrite", root, StateDir)
	}

	files, err := templateFiles()
	if err != nil {
		return res, err
	}
	vars := strings.NewReplacer("{{DATA_NAME}}", filepath.Base(root))
	for _, rel := range files {
		created, err := install(root, rel, vars)
		if err != nil {
			return res, fmt.Errorf("scaffold %s: %w", rel, err)
		}
		if created {
			res.Created = append(res.Created, rel)
		} else {
			res.Kept = append(res.Kept, rel)
		}
	}

	if err := os.MkdirAll(filepath.Join(root, StateDir), 0o755); err != nil {
		return res, fmt.Errorf("create state dir: %w", err)
	}

	if opts.GitInit {
		cmd := exec.Command("git", "init", root)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return res, fmt.Errorf("git init: %w", err)
		}
	}
	return res, nil
}

// templateFiles returns every embedded file relative to templates/, in
// walk order.
func templateFiles() ([]string, error) {
	var files []string
	err := fs.WalkDir(templates, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		files = append(files, strings.TrimPrefix(p, "templates/"))
		return nil
	})
	return files, err
}

// install writes one template unless the destination exists.
func install(root, rel string, vars *strings.Replacer) (bool, error) {
	dest := filepath.Join(root, filepath.FromSlash(rel))
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	data, err := templates.ReadFile(path.Join("templates", rel))
	if err != nil {
		return false, err
	}
	if path.Ext(rel) == ".md" {
		data = []byte(vars.Replace(string(data)))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(dest, data, filePermission(rel))
}

// filePermission returns 0o755 for shell scripts, 0o644 for everything else.
func filePermission(rel string) os.FileMode {
	if strings.HasSuffix(rel, ".sh") {
		return 0o755
	}
	return 0o644
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
