package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
)

// Codec names the compression applied to a backup tarball.
type Codec string

const (
	Zstd   Codec = "zstd"
	Gzip   Codec = "gzip"
	Snappy Codec = "snappy"
	Brotli Codec = "brotli"
	LZ4    Codec = "lz4"
	None   Codec = "none"
)

var extensions = map[Codec]string{
	Zstd:   ".tar.zst",
	Gzip:   ".tar.gz",
	Snappy: ".tar.sz",
	Brotli: ".tar.br",
	LZ4:    ".tar.lz4",
	None:   ".tar",
}

// Codecs lists the supported codecs.
func Codecs() []Codec {
	return []Codec{Zstd, Gzip, Snappy, Brotli, LZ4, None}
}

// ParseCodec accepts a codec name. Empty means zstd.
func ParseCodec(s string) (Codec, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Zstd, nil
	}
	if s == "zst" {
		return Zstd, nil
	}
	if s == "gz" {
		return Gzip, nil
	}
	c := Codec(s)
	if _, ok := extensions[c]; !ok {
		return "", fmt.Errorf("unknown archive codec %q", s)
	}
	return c, nil
}

// Ext returns the file extension of a backup made with c.
func (c Codec) Ext() string { return extensions[c] }

// CodecFor infers the codec from an archive file name.
func CodecFor(path string) (Codec, error) {
	for _, c := range []Codec{Zstd, Gzip, Snappy, Brotli, LZ4, None} {
		if strings.HasSuffix(path, extensions[c]) {
			return c, nil
		}
	}
	return "", fmt.Errorf("cannot tell archive codec from %s", path)
}

// NewWriter wraps w with the codec's compressor. Close flushes the
// compressor but not w.
func NewWriter(w io.Writer, c Codec) (io.WriteCloser, error) {
	switch c {
	case Zstd:
		return zstd.NewWriter(w)
	case Gzip:
		return gzip.NewWriter(w), nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case Brotli:
		return brotli.NewWriterLevel(w, brotli.DefaultCompression), nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case None:
		return nopWriteCloser{w}, nil
	}
	return nil, fmt.Errorf("unknown archive codec %q", c)
}

// NewReader wraps r with the codec's decompressor.
func NewReader(r io.Reader, c Codec) (io.ReadCloser, error) {
	switch c {
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	case Gzip:
		return gzip.NewReader(r)
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case Brotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case None:
		return io.NopCloser(r), nil
	}
	return nil, fmt.Errorf("unknown archive codec %q", c)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type zstdReadCloser struct{ d *zstd.Decoder }

func (z zstdReadCloser) Read(p []byte) (int, error) { return z.d.Read(p) }

func (z zstdReadCloser) Close() error {
	z.d.Close()
	return nil
}
