// Package archive backs up the data directory as a compressed tarball and
// restores it.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateFormat names backups by day, e.g. "2024_Mar_01_".
const DateFormat = "2006_Jan_02_"

// ErrUnsafePath reports an archive entry that would escape the restore dir.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Result summarizes a backup or restore.
type Result struct {
	Path  string
	Files int
	Bytes int64
}

// ArchivePath returns the deterministic backup path for day now.
func ArchivePath(archiveDir string, c Codec, now time.Time) string {
	return filepath.Join(archiveDir, now.Format(DateFormat)+c.Ext())
}

// IsArchived returns true if a backup for day now already exists.
func IsArchived(archiveDir string, c Codec, now time.Time) bool {
	_, err := os.Stat(ArchivePath(archiveDir, c, now))
	return err == nil
}

// Backup writes every regular file under srcDir into a tarball at
// ArchivePath. A same-day backup is replaced. Files under archiveDir are
// skipped when it lies inside srcDir.
func Backup(srcDir, archiveDir string, c Codec, now time.Time) (Result, error) {
	destPath := ArchivePath(archiveDir, c, now)
	res := Result{Path: destPath}

	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return res, fmt.Errorf("create archive dir: %w", err)
	}

	absArchive, _ := filepath.Abs(archiveDir)

	tmp, err := os.CreateTemp(archiveDir, ".backup-*")
	if err != nil {
		return res, fmt.Errorf("create archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	cw, err := NewWriter(tmp, c)
	if err != nil {
		return res, fmt.Errorf("create %s encoder: %w", c, err)
	}
	tw := tar.NewWriter(cw)

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if abs, _ := filepath.Abs(path); abs == absArchive && info.IsDir() {
			return filepath.SkipDir
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		n, err := io.Copy(tw, f)
		f.Close()
		if err != nil {
			return err
		}
		res.Files++
		res.Bytes += n
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walk %s: %w", srcDir, err)
	}

	if err := tw.Close(); err != nil {
		return res, fmt.Errorf("finalize tar: %w", err)
	}
	if err := cw.Close(); err != nil {
		return res, fmt.Errorf("finalize compression: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return res, fmt.Errorf("rename archive: %w", err)
	}
	return res, nil
}

// Restore unpacks archivePath into destDir, overwriting files that exist.
// The codec is taken from the file name.
func Restore(archivePath, destDir string) (Result, error) {
	res := Result{Path: destDir}

	c, err := CodecFor(archivePath)
	if err != nil {
		return res, err
	}

	src, err := os.Open(archivePath)
	if err != nil {
		return res, fmt.Errorf("open archive: %w", err)
	}
	defer src.Close()

	cr, err := NewReader(src, c)
	if err != nil {
		return res, fmt.Errorf("create %s decoder: %w", c, err)
	}
	defer cr.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return res, err
	}

	tr := tar.NewReader(cr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(hdr.Name))
		if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return res, fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return res, fmt.Errorf("create dir: %w", err)
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
		if err != nil {
			return res, fmt.Errorf("create %s: %w", hdr.Name, err)
		}
		n, err := io.Copy(f, tr)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return res, fmt.Errorf("write %s: %w", hdr.Name, err)
		}
		res.Files++
		res.Bytes += n
	}
	return res, nil
}
