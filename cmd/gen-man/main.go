// Command gen-man writes the sv man pages into a directory (default "man").
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/suykerbuyk/sweep-vault/internal/help"
)

func main() {
	dir := "man"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := generate(dir, time.Now().Format("2006-01-02")); err != nil {
		fmt.Fprintf(os.Stderr, "gen-man: %v\n", err)
		os.Exit(1)
	}
}

func generate(dir, date string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	pages := map[string]string{
		"sv.1": help.FormatRoffTopLevel(help.TopLevel, help.Subcommands, date),
	}
	for _, group := range [][]help.Command{help.Subcommands, help.IndexSubcommands} {
		for _, cmd := range group {
			pages[cmd.ManName()+".1"] = help.FormatRoff(cmd, date)
		}
	}
	for name, content := range pages {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	fmt.Printf("  %d pages in %s\n", len(pages), dir)
	return nil
}
