package main

import (
	"testing"
	"time"

	"radiobank/internal/config"
	"radiobank/internal/services/sox"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00"},
		{59 * time.Second, "0:00:59"},
		{30 * time.Minute, "0:30:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{-time.Second, "0:00:00"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildCatalogSource(t *testing.T) {
	encoder := sox.NewCLI()

	cfg := config.Default()
	cfg.Catalog.Source = "ubuweb"
	source, err := buildCatalogSource(&cfg, encoder, nil)
	if err != nil {
		t.Fatalf("ubuweb source: %v", err)
	}
	if source.source.Name() != "ubuweb" {
		t.Fatalf("source name %q", source.source.Name())
	}

	cfg = config.Default()
	cfg.Catalog.Source = "dir"
	cfg.Catalog.LocalDir = t.TempDir()
	source, err = buildCatalogSource(&cfg, encoder, nil)
	if err != nil {
		t.Fatalf("dir source: %v", err)
	}
	if source.source.Name() != "dir" {
		t.Fatalf("source name %q", source.source.Name())
	}

	cfg = config.Default()
	cfg.Catalog.Source = "dir"
	cfg.Catalog.LocalDir = ""
	if _, err := buildCatalogSource(&cfg, encoder, nil); err == nil {
		t.Fatal("expected error when dir source has no local_dir")
	}

	cfg = config.Default()
	cfg.Catalog.Source = "tape"
	if _, err := buildCatalogSource(&cfg, encoder, nil); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
