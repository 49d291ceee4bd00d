package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"radiobank/internal/catalog"
	"radiobank/internal/catalog/dirsource"
	"radiobank/internal/catalog/ubuweb"
	"radiobank/internal/config"
	"radiobank/internal/services/sox"
)

// catalogSource bundles a source with its payload resolver and a short
// description recorded in run reports.
type catalogSource struct {
	source   catalog.Source
	resolver catalog.Resolver
	desc     string
}

func buildCatalogSource(cfg *config.Config, encoder sox.Client, logger *slog.Logger) (*catalogSource, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Catalog.Source)) {
	case "ubuweb":
		source := ubuweb.New(
			ubuweb.WithIndexURL(cfg.Catalog.IndexURL),
			ubuweb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Catalog.RequestTimeout) * time.Second}),
			ubuweb.WithRequestsPerSecond(cfg.Catalog.RequestsPerSecond),
			ubuweb.WithLogger(logger),
		)
		return &catalogSource{source: source, resolver: source, desc: "ubuweb " + cfg.Catalog.IndexURL}, nil
	case "dir":
		if strings.TrimSpace(cfg.Catalog.LocalDir) == "" {
			return nil, fmt.Errorf("catalog source %q requires local_dir (or --dir)", cfg.Catalog.Source)
		}
		source := dirsource.New(cfg.Catalog.LocalDir, encoder, logger)
		return &catalogSource{source: source, resolver: source, desc: "dir " + cfg.Catalog.LocalDir}, nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// formatDuration renders durations as h:mm:ss for table cells.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}
