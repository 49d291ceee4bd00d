package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// normalize expands home-relative paths and cleans string fields.
func (c *Config) normalize() error {
	fields := []*string{
		&c.Paths.StagingDir,
		&c.Paths.LogDir,
		&c.Paths.ReportDB,
		&c.Catalog.LocalDir,
	}
	for _, field := range fields {
		expanded, err := expandHome(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Catalog.Source = strings.ToLower(strings.TrimSpace(c.Catalog.Source))
	c.Catalog.IndexURL = strings.TrimSpace(c.Catalog.IndexURL)
	c.Audio.SoxBinary = strings.TrimSpace(c.Audio.SoxBinary)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	return nil
}

func expandHome(path string) (string, error) {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
