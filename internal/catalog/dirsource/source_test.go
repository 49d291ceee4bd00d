package dirsource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"radiobank/internal/services/sox"
)

type fakeMeasurer struct {
	measured [][]string
}

func (f *fakeMeasurer) MeasureDurations(ctx context.Context, paths ...string) ([]time.Duration, error) {
	f.measured = append(f.measured, paths)
	durations := make([]time.Duration, len(paths))
	for index := range paths {
		durations[index] = time.Duration(index+1) * time.Minute
	}
	return durations, nil
}

func (f *fakeMeasurer) EncodeConcat(ctx context.Context, inputs []string, outputPath string, opts sox.EncodeOptions) error {
	return nil
}

func newCatalogDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"tape-music/a.mp3",
		"tape-music/b.wav",
		"tape-music/liner-notes.txt",
		"field_recordings/nested/c.flac",
		"stray.mp3",
	}
	for _, name := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("payload:"+name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestFetchSections(t *testing.T) {
	root := newCatalogDir(t)
	measurer := &fakeMeasurer{}
	source := New(root, measurer, nil)

	sections, err := source.FetchSections(context.Background())
	if err != nil {
		t.Fatalf("FetchSections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}

	// Lexical order: field_recordings before tape-music.
	if sections[0].ID != "field_recordings" || sections[1].ID != "tape-music" {
		t.Fatalf("section order %q, %q", sections[0].ID, sections[1].ID)
	}
	if sections[0].Name != "Field Recordings" {
		t.Fatalf("section name %q", sections[0].Name)
	}

	tape := sections[1]
	if len(tape.Clips) != 2 {
		t.Fatalf("expected 2 clips after filtering non-audio, got %d", len(tape.Clips))
	}
	if tape.Clips[0].ID != "a" || tape.Clips[1].ID != "b" {
		t.Fatalf("clip ids %q, %q", tape.Clips[0].ID, tape.Clips[1].ID)
	}
	if tape.Clips[0].Duration != time.Minute || tape.Clips[1].Duration != 2*time.Minute {
		t.Fatalf("durations %v, %v", tape.Clips[0].Duration, tape.Clips[1].Duration)
	}

	nested := sections[0].Clips
	if len(nested) != 1 || nested[0].ID != "nested-c" {
		t.Fatalf("nested clip ids %v", nested)
	}

	// One measurement batch per section.
	if len(measurer.measured) != 2 {
		t.Fatalf("expected 2 measurement batches, got %d", len(measurer.measured))
	}
}

func TestFetchSectionsEmptyRoot(t *testing.T) {
	source := New(t.TempDir(), &fakeMeasurer{}, nil)
	if _, err := source.FetchSections(context.Background()); err == nil {
		t.Fatal("expected error for root without section directories")
	}
}

func TestResolveOpensPayload(t *testing.T) {
	root := newCatalogDir(t)
	source := New(root, &fakeMeasurer{}, nil)

	payload := filepath.Join(root, "tape-music", "a.mp3")
	body, err := source.Resolve(context.Background(), payload)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload:tape-music/a.mp3" {
		t.Fatalf("payload %q", data)
	}
}

func TestResolveMissingPayload(t *testing.T) {
	source := New(t.TempDir(), &fakeMeasurer{}, nil)
	if _, err := source.Resolve(context.Background(), "/nonexistent/clip.mp3"); err == nil {
		t.Fatal("expected error for missing payload")
	}
}
