package dirsource

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"radiobank/internal/catalog"
	"radiobank/internal/logging"
	"radiobank/internal/services/sox"
)

// audioExtensions lists the payload types the source recognizes.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
	".aiff": {},
	".aif":  {},
	".m4a":  {},
}

// Source exposes a local directory as a catalog: each immediate subdirectory
// is a section, each audio file inside it a clip. Durations are measured with
// sox so fill planning works from real lengths rather than estimates.
type Source struct {
	root     string
	measurer sox.Client
	logger   *slog.Logger
	titler   cases.Caser
}

// New constructs a Source rooted at dir.
func New(dir string, measurer sox.Client, logger *slog.Logger) *Source {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Source{
		root:     dir,
		measurer: measurer,
		logger:   logging.WithComponent(logger, "dirsource"),
		titler:   cases.Title(language.English),
	}
}

// Name implements catalog.Source.
func (s *Source) Name() string { return "dir" }

// FetchSections walks the root's subdirectories in lexical order.
func (s *Source) FetchSections(ctx context.Context) ([]catalog.Section, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read catalog directory: %w", err)
	}

	var sections []catalog.Section
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		section, err := s.fetchSection(ctx, entry.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable section",
				logging.String(logging.FieldSection, entry.Name()), logging.Error(err))
			continue
		}
		sections = append(sections, section)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("no section directories under %s", s.root)
	}
	return sections, nil
}

func (s *Source) fetchSection(ctx context.Context, name string) (catalog.Section, error) {
	section := catalog.Section{ID: name, Name: s.sectionName(name)}

	dir := filepath.Join(s.root, name)
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return section, err
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return section, nil
	}

	durations, err := s.measurer.MeasureDurations(ctx, paths...)
	if err != nil {
		return section, fmt.Errorf("measure %s: %w", name, err)
	}
	for index, path := range paths {
		section.Clips = append(section.Clips, catalog.Clip{
			ID:         clipID(dir, path),
			Duration:   durations[index],
			PayloadRef: path,
		})
	}
	return section, nil
}

// Resolve implements catalog.Resolver by opening the payload file.
func (s *Source) Resolve(ctx context.Context, payloadRef string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(payloadRef)
	if err != nil {
		return nil, fmt.Errorf("open clip payload: %w", err)
	}
	return file, nil
}

func (s *Source) sectionName(id string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return s.titler.String(words)
}

// clipID derives a stable identifier from the payload path relative to its
// section directory.
func clipID(sectionDir, path string) string {
	rel, err := filepath.Rel(sectionDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}

var (
	_ catalog.Source   = (*Source)(nil)
	_ catalog.Resolver = (*Source)(nil)
)
