package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"radiobank/internal/logging"
	"radiobank/internal/services"
)

// Clip is the atomic unit of selection: one audio item with a known duration
// and an opaque payload reference resolved only at assembly time.
type Clip struct {
	ID         string
	SectionID  string
	Duration   time.Duration
	PayloadRef string
}

// Section is a thematic grouping of clips within one source.
type Section struct {
	ID    string
	Name  string
	Clips []Clip
}

// TotalDuration sums the durations of the section's clips.
func (s Section) TotalDuration() time.Duration {
	var total time.Duration
	for _, clip := range s.Clips {
		total += clip.Duration
	}
	return total
}

// Source provides section and clip metadata. Implementations must be
// idempotent across repeated calls within a run.
type Source interface {
	Name() string
	FetchSections(ctx context.Context) ([]Section, error)
}

// Resolver retrieves a clip's audio payload. Invoked lazily during assembly;
// catalog load only guarantees metadata.
type Resolver interface {
	Resolve(ctx context.Context, payloadRef string) (io.ReadCloser, error)
}

// Catalog is the read-only aggregate of every source's sections.
type Catalog struct {
	sections  []Section
	bySection map[string]int
	clipCount int
}

// Load fetches sections from every source and aggregates them. Section and
// clip identifiers are namespaced by source name so cross-source collisions
// cannot reach the selection core. Fails with services.ErrCatalogUnavailable
// when no clip at all could be retrieved.
func Load(ctx context.Context, logger *slog.Logger, sources ...Source) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "catalog")
	if len(sources) == 0 {
		return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "load", errors.New("no sources configured"))
	}

	cat := &Catalog{bySection: make(map[string]int)}
	seenClips := make(map[string]struct{})
	var lastErr error

	for _, source := range sources {
		sections, err := source.FetchSections(ctx)
		if err != nil {
			lastErr = services.Wrap(services.ErrSourceUnreachable, "catalog", source.Name(), err)
			logger.Warn("catalog source failed", logging.String("source", source.Name()), logging.Error(err))
			continue
		}
		for _, section := range sections {
			namespaced := Section{
				ID:   source.Name() + "/" + section.ID,
				Name: section.Name,
			}
			for _, clip := range section.Clips {
				if clip.Duration <= 0 {
					logger.Debug("dropping clip without positive duration",
						logging.String(logging.FieldClip, clip.ID),
						logging.String(logging.FieldSection, namespaced.ID))
					continue
				}
				id := source.Name() + "/" + clip.ID
				if _, dup := seenClips[id]; dup {
					logger.Warn("dropping duplicate clip id", logging.String(logging.FieldClip, id))
					continue
				}
				seenClips[id] = struct{}{}
				namespaced.Clips = append(namespaced.Clips, Clip{
					ID:         id,
					SectionID:  namespaced.ID,
					Duration:   clip.Duration,
					PayloadRef: clip.PayloadRef,
				})
			}
			if len(namespaced.Clips) == 0 {
				continue
			}
			if _, dup := cat.bySection[namespaced.ID]; dup {
				return nil, fmt.Errorf("duplicate section id %q from source %s", namespaced.ID, source.Name())
			}
			cat.bySection[namespaced.ID] = len(cat.sections)
			cat.sections = append(cat.sections, namespaced)
			cat.clipCount += len(namespaced.Clips)
		}
		logger.Info("catalog source loaded",
			logging.String("source", source.Name()),
			logging.Int("sections", len(sections)))
	}

	if cat.clipCount == 0 {
		if lastErr != nil {
			return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "load", lastErr)
		}
		return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "load", errors.New("sources returned no clips"))
	}
	return cat, nil
}

// Sections returns a copy of the aggregated sections.
func (c *Catalog) Sections() []Section {
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// Clips returns the clips of one section.
func (c *Catalog) Clips(sectionID string) ([]Clip, bool) {
	index, ok := c.bySection[sectionID]
	if !ok {
		return nil, false
	}
	clips := make([]Clip, len(c.sections[index].Clips))
	copy(clips, c.sections[index].Clips)
	return clips, true
}

// SectionCount returns the number of sections holding at least one clip.
func (c *Catalog) SectionCount() int { return len(c.sections) }

// ClipCount returns the total number of clips across all sections.
func (c *Catalog) ClipCount() int { return c.clipCount }
