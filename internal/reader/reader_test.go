package reader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.json")
	os.WriteFile(path, []byte(`[[1,2,3],[4,5,6]]`), 0o644)

	rows, err := Default().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]float64{{1, 2, 3}, {4, 5, 6}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestReadJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.json")
	os.WriteFile(path, []byte(`{"not":"rows"}`), 0o644)
	if _, err := ReadJSON(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.parquet")
	want := [][]float64{{1.5, 2.5}, {3, 4}, {-1, 0}}
	if err := WriteParquet(path, want); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	got, err := Default().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	_, err := Default().Read("/tmp/recording.ibw")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestRegistrySupports(t *testing.T) {
	r := Default()
	if !r.Supports("a/b.JSON") {
		t.Error("extension match should be case-insensitive")
	}
	if r.Supports("a/b.txt") {
		t.Error("txt should not be supported")
	}

	r.Register(".ibw", Func(func(string) ([][]float64, error) { return [][]float64{{1}}, nil }))
	if got := r.Extensions(); !reflect.DeepEqual(got, []string{"ibw", "json", "parquet"}) {
		t.Errorf("Extensions = %v", got)
	}
}
