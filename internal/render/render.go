// Package render draws sweeps to PNG and SVG images.
package render

import (
	"context"
	"fmt"

	"github.com/suykerbuyk/sweep-vault/internal/store"
)

// YLim fixes the vertical axis. It only affects images, never stored data.
type YLim struct {
	Min float64
	Max float64
}

// Marker is a highlighted sample, drawn as a dot over the series.
type Marker struct {
	Time  float64
	Value float64
}

// Request describes one image. Every series is stretched over TotalTime,
// so a single long series reads as a concatenation and several series
// read as an overlay.
type Request struct {
	Title     string
	Series    [][]float64
	TotalTime float64
	YLim      *YLim
	Minima    []Marker
	Maxima    []Marker
}

// Output holds the encoded images. Empty slices mean nothing was drawn.
type Output struct {
	PNG []byte
	SVG []byte
}

// Renderer turns a request into images.
type Renderer interface {
	Render(req Request) (Output, error)
}

// Nop draws nothing. Used when rendering is disabled.
type Nop struct{}

func (Nop) Render(Request) (Output, error) { return Output{}, nil }

// Save writes out to prefix+".png" and prefix+".svg". Empty images are skipped.
func Save(ctx context.Context, s store.Store, prefix string, out Output) error {
	if len(out.PNG) > 0 {
		if err := s.Put(ctx, prefix+".png", out.PNG); err != nil {
			return fmt.Errorf("save png: %w", err)
		}
	}
	if len(out.SVG) > 0 {
		if err := s.Put(ctx, prefix+".svg", out.SVG); err != nil {
			return fmt.Errorf("save svg: %w", err)
		}
	}
	return nil
}
