package assembly

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"radiobank/internal/catalog"
	"radiobank/internal/services"
	"radiobank/internal/services/sox"
)

type fakeResolver struct {
	payloads map[string]string
	failing  map[string]error
}

func (r *fakeResolver) Resolve(_ context.Context, ref string) (io.ReadCloser, error) {
	if err, ok := r.failing[ref]; ok {
		return nil, err
	}
	body, ok := r.payloads[ref]
	if !ok {
		return nil, errors.New("unknown payload")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type fakeEncoder struct {
	inputs  []string
	output  string
	opts    sox.EncodeOptions
	err     error
	content []string
}

func (e *fakeEncoder) MeasureDurations(context.Context, ...string) ([]time.Duration, error) {
	return nil, errors.New("not used")
}

func (e *fakeEncoder) EncodeConcat(_ context.Context, inputs []string, output string, opts sox.EncodeOptions) error {
	if e.err != nil {
		return e.err
	}
	e.inputs = append([]string(nil), inputs...)
	e.output = output
	e.opts = opts
	for _, input := range inputs {
		data, err := os.ReadFile(input)
		if err != nil {
			return err
		}
		e.content = append(e.content, string(data))
	}
	return os.WriteFile(output, []byte(strings.Join(e.content, "|")), 0o644)
}

func testClips() []catalog.Clip {
	return []catalog.Clip{
		{ID: "c1", PayloadRef: "http://example.com/one.mp3", Duration: time.Minute},
		{ID: "c2", PayloadRef: "http://example.com/two.mp3", Duration: time.Minute},
		{ID: "c3", PayloadRef: "http://example.com/three.wav", Duration: time.Minute},
	}
}

func newTestAssembler(t *testing.T, resolver catalog.Resolver, encoder sox.Client) (*Assembler, string) {
	t.Helper()
	staging := t.TempDir()
	output := t.TempDir()
	a := New(resolver, encoder, staging, output, sox.EncodeOptions{Format: sox.RadioMusicFormat}, nil)
	return a, output
}

func TestAssemblePreservesListeningOrder(t *testing.T) {
	resolver := &fakeResolver{payloads: map[string]string{
		"http://example.com/one.mp3":   "ONE",
		"http://example.com/two.mp3":   "TWO",
		"http://example.com/three.wav": "THREE",
	}}
	encoder := &fakeEncoder{}
	assembler, root := newTestAssembler(t, resolver, encoder)

	path, err := assembler.Assemble(context.Background(), 3, 7, testClips())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if want := filepath.Join(root, "03", "07.wav"); path != want {
		t.Fatalf("path %q, want %q", path, want)
	}

	if len(encoder.content) != 3 {
		t.Fatalf("encoder received %d inputs", len(encoder.content))
	}
	for index, want := range []string{"ONE", "TWO", "THREE"} {
		if encoder.content[index] != want {
			t.Fatalf("input %d = %q, want %q (order must match selection)", index, encoder.content[index], want)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read station file: %v", err)
	}
	if string(data) != "ONE|TWO|THREE" {
		t.Fatalf("station file content %q", data)
	}
}

func TestAssembleStagesWithPayloadExtensions(t *testing.T) {
	resolver := &fakeResolver{payloads: map[string]string{
		"http://example.com/one.mp3":   "x",
		"http://example.com/two.mp3":   "x",
		"http://example.com/three.wav": "x",
	}}
	encoder := &fakeEncoder{}
	assembler, _ := newTestAssembler(t, resolver, encoder)

	if _, err := assembler.Assemble(context.Background(), 0, 0, testClips()); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.HasSuffix(encoder.inputs[0], "000.mp3") || !strings.HasSuffix(encoder.inputs[2], "002.wav") {
		t.Fatalf("staged names should keep payload extensions: %v", encoder.inputs)
	}
}

func TestAssembleClipUnavailable(t *testing.T) {
	resolver := &fakeResolver{
		payloads: map[string]string{"http://example.com/one.mp3": "ONE"},
		failing:  map[string]error{"http://example.com/two.mp3": errors.New("410 gone")},
	}
	assembler, root := newTestAssembler(t, resolver, &fakeEncoder{})

	_, err := assembler.Assemble(context.Background(), 1, 2, testClips())
	if !errors.Is(err, services.ErrClipUnavailable) {
		t.Fatalf("expected ErrClipUnavailable, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "01", "02.wav")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("failed station must not leave an output file")
	}
}

func TestAssembleEncodingFailed(t *testing.T) {
	resolver := &fakeResolver{payloads: map[string]string{
		"http://example.com/one.mp3":   "x",
		"http://example.com/two.mp3":   "x",
		"http://example.com/three.wav": "x",
	}}
	encoder := &fakeEncoder{err: errors.New("sox splice: boom")}
	assembler, root := newTestAssembler(t, resolver, encoder)

	_, err := assembler.Assemble(context.Background(), 0, 5, testClips())
	if !errors.Is(err, services.ErrEncodingFailed) {
		t.Fatalf("expected ErrEncodingFailed, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "00"))
	for _, entry := range entries {
		if strings.Contains(entry.Name(), "partial") {
			t.Fatalf("partial file left behind: %s", entry.Name())
		}
	}
}

func TestStationPathZeroPadding(t *testing.T) {
	got := StationPath("/media/card", 4, 9)
	want := filepath.Join("/media/card", "04", "09.wav")
	if got != want {
		t.Fatalf("StationPath = %q, want %q", got, want)
	}
	got = StationPath("/media/card", 15, 11)
	want = filepath.Join("/media/card", "15", "11.wav")
	if got != want {
		t.Fatalf("StationPath = %q, want %q", got, want)
	}
}
