// Package sanitize cleans user-supplied names before they become paths
// or store keys.
package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	disallowed = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	whitespace = regexp.MustCompile(`\s+`)
)

var windowsDevices = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"LPT1": true, "LPT2": true, "LPT3": true,
}

// SecureFilename reduces name to a flat, ASCII-only file name. Path
// separators and whitespace become underscores, anything else outside
// [A-Za-z0-9_.-] is dropped, and leading or trailing dots and underscores
// are trimmed. The result may be empty.
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = whitespace.ReplaceAllString(strings.TrimSpace(name), "_")
	name = disallowed.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if stem := strings.ToUpper(strings.TrimSuffix(name, filepath.Ext(name))); windowsDevices[stem] {
		name = "_" + name
	}
	return name
}
