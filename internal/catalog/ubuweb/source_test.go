package ubuweb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newCatalogServer serves a miniature UbuWeb-shaped catalog: an index page
// linking two section pages, each linking MP3 payloads.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/sound/index.html", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body>
			<a href="tape-music.html">Tape Music</a>
			<a href="field-recordings.html">Field Recordings</a>
			<a href="index.html">self link</a>
			<a href="https://elsewhere.example.com/sound/x.html">offsite</a>
		</body></html>`)
	})
	mux.HandleFunc("/sound/tape-music.html", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body>
			<a href="/media/one.mp3">one</a>
			<a href="/media/two.mp3">two</a>
			<a href="/media/cover.jpg">not audio</a>
		</body></html>`)
	})
	mux.HandleFunc("/sound/field-recordings.html", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><a href="/media/three.mp3">three</a></body></html>`)
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.mp3") {
			http.NotFound(w, r)
			return
		}
		// 1,600,000 bytes at the 128 kbps nominal rate is 100 seconds.
		payload := make([]byte, 1600000)
		w.Header().Set("Content-Type", "audio/mpeg")
		http.ServeContent(w, r, r.URL.Path, time.Time{}, strings.NewReader(string(payload)))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestSource(t *testing.T, server *httptest.Server) *Source {
	t.Helper()
	return New(
		WithIndexURL(server.URL+"/sound/index.html"),
		WithHTTPClient(server.Client()),
		WithRequestsPerSecond(1000),
	)
}

func TestFetchSections(t *testing.T) {
	server := newCatalogServer(t)
	source := newTestSource(t, server)

	sections, err := source.FetchSections(context.Background())
	if err != nil {
		t.Fatalf("FetchSections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}

	first := sections[0]
	if first.ID != "sound-tape-music" {
		t.Fatalf("section id %q", first.ID)
	}
	if first.Name != "Sound Tape Music" {
		t.Fatalf("section name %q", first.Name)
	}
	if len(first.Clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(first.Clips))
	}

	clip := first.Clips[0]
	if clip.ID != "media-one" {
		t.Fatalf("clip id %q", clip.ID)
	}
	if clip.Duration != 100*time.Second {
		t.Fatalf("estimated duration %v, want 100s", clip.Duration)
	}
	if !strings.HasSuffix(clip.PayloadRef, "/media/one.mp3") {
		t.Fatalf("payload ref %q", clip.PayloadRef)
	}
}

func TestFetchSectionsIsIdempotent(t *testing.T) {
	server := newCatalogServer(t)
	source := newTestSource(t, server)

	first, err := source.FetchSections(context.Background())
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := source.FetchSections(context.Background())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("section counts differ: %d vs %d", len(first), len(second))
	}
	for index := range first {
		if first[index].ID != second[index].ID || len(first[index].Clips) != len(second[index].Clips) {
			t.Fatalf("section %d differs between fetches", index)
		}
	}
}

func TestFetchSectionsIndexUnreachable(t *testing.T) {
	server := newCatalogServer(t)
	source := New(
		WithIndexURL(server.URL+"/sound/missing.html"),
		WithHTTPClient(server.Client()),
		WithRequestsPerSecond(1000),
	)
	if _, err := source.FetchSections(context.Background()); err == nil {
		t.Fatal("expected error for unreachable index")
	}
}

func TestResolveStreamsPayload(t *testing.T) {
	server := newCatalogServer(t)
	source := newTestSource(t, server)

	body, err := source.Resolve(context.Background(), server.URL+"/media/one.mp3")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if len(data) != 1600000 {
		t.Fatalf("payload size %d", len(data))
	}
}

func TestResolveMissingPayload(t *testing.T) {
	server := newCatalogServer(t)
	source := newTestSource(t, server)

	if _, err := source.Resolve(context.Background(), server.URL+"/media/missing.mp3"); err == nil {
		t.Fatal("expected error for missing payload")
	}
}
