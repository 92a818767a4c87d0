package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testDay = time.Date(2024, time.March, 1, 15, 4, 5, 0, time.UTC)

func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"raw/2024-03-01/cell3.json":                  "[[1,2],[3,4]]",
		"store/2024-03-01/cell3/sweeps.json":         "[[1,3],[2,4]]",
		"store/2024-03-01/cell3/avrg-0-2_cell3.json": "[[1.5,3.5]]",
		".sweep-vault/catalog.db":                    "sqlite",
	}
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		os.MkdirAll(filepath.Dir(p), 0o755)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestArchivePath(t *testing.T) {
	got := ArchivePath("/backups", Zstd, testDay)
	if want := "/backups/2024_Mar_01_.tar.zst"; got != want {
		t.Errorf("ArchivePath = %q, want %q", got, want)
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	for _, c := range Codecs() {
		t.Run(string(c), func(t *testing.T) {
			src := seed(t)
			archiveDir := t.TempDir()

			res, err := Backup(src, archiveDir, c, testDay)
			if err != nil {
				t.Fatalf("Backup: %v", err)
			}
			if res.Files != 4 {
				t.Errorf("Files = %d, want 4", res.Files)
			}
			if !IsArchived(archiveDir, c, testDay) {
				t.Error("IsArchived = false after Backup")
			}

			dest := t.TempDir()
			got, err := Restore(res.Path, dest)
			if err != nil {
				t.Fatalf("Restore: %v", err)
			}
			if got.Files != 4 || got.Bytes != res.Bytes {
				t.Errorf("restored %d files / %d bytes, backed up %d / %d", got.Files, got.Bytes, res.Files, res.Bytes)
			}

			data, err := os.ReadFile(filepath.Join(dest, "store/2024-03-01/cell3/avrg-0-2_cell3.json"))
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "[[1.5,3.5]]" {
				t.Errorf("content = %q", data)
			}
		})
	}
}

func TestBackupSkipsNestedArchiveDir(t *testing.T) {
	src := seed(t)
	archiveDir := filepath.Join(src, "backups")
	os.MkdirAll(archiveDir, 0o755)
	os.WriteFile(filepath.Join(archiveDir, "old.tar.zst"), []byte("old"), 0o644)

	res, err := Backup(src, archiveDir, Gzip, testDay)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if res.Files != 4 {
		t.Errorf("Files = %d, want 4 (archive dir must be skipped)", res.Files)
	}
}

func TestBackupSameDayReplaces(t *testing.T) {
	src := seed(t)
	archiveDir := t.TempDir()

	if _, err := Backup(src, archiveDir, LZ4, testDay); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(src, "raw/2024-03-01/cell4.json"), []byte("[[0]]"), 0o644)
	res, err := Backup(src, archiveDir, LZ4, testDay)
	if err != nil {
		t.Fatal(err)
	}
	if res.Files != 5 {
		t.Errorf("Files = %d, want 5", res.Files)
	}
	entries, _ := os.ReadDir(archiveDir)
	if len(entries) != 1 {
		t.Errorf("archive dir holds %d entries, want 1", len(entries))
	}
}

func TestRestoreRejectsEscape(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	tw.WriteHeader(&tar.Header{Name: "../evil.txt", Mode: 0o644, Size: 4, Typeflag: tar.TypeReg})
	tw.Write([]byte("evil"))
	tw.Close()

	path := filepath.Join(t.TempDir(), "bad.tar")
	os.WriteFile(path, buf.Bytes(), 0o644)

	_, err := Restore(path, t.TempDir())
	if !errors.Is(err, ErrUnsafePath) {
		t.Errorf("Restore = %v, want ErrUnsafePath", err)
	}
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		in   string
		want Codec
	}{
		{"", Zstd},
		{"zst", Zstd},
		{"GZIP", Gzip},
		{"gz", Gzip},
		{"snappy", Snappy},
		{"brotli", Brotli},
		{"lz4", LZ4},
		{"none", None},
	}
	for _, tt := range tests {
		got, err := ParseCodec(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseCodec(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseCodec("rar"); err == nil {
		t.Error("ParseCodec(rar) should fail")
	}
}

func TestCodecFor(t *testing.T) {
	for _, c := range Codecs() {
		got, err := CodecFor("/b/2024_Mar_01_" + c.Ext())
		if err != nil || got != c {
			t.Errorf("CodecFor(%s) = %q, %v", c.Ext(), got, err)
		}
	}
	if _, err := CodecFor("backup.zip"); err == nil {
		t.Error("CodecFor(.zip) should fail")
	}
}
