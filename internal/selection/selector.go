package selection

import (
	"fmt"
	"math/rand"
	"time"

	"radiobank/internal/catalog"
	"radiobank/internal/services"
)

// Result is one station's chosen playback sequence. Clip order is the
// listening order on the assembled station.
type Result struct {
	Clips    []catalog.Clip
	Sections []string
	Duration time.Duration

	// Underfilled marks a station whose fill stayed below the acceptable
	// minimum. The station is still assembled; slack is tolerated by design.
	Underfilled bool
}

// Params tunes the selection policy.
type Params struct {
	// Diversity is the number of distinct sections per station.
	Diversity int
	// MinFillRatio is the fraction of the target below which a station is
	// reported underfilled. Zero accepts any non-exceeding fill.
	MinFillRatio float64
}

// Selector composes stations from catalog sections without reusing a clip
// anywhere in the run. The random source is injected so seeded sequential
// runs reproduce their bank/station assignments.
type Selector struct {
	catalog *catalog.Catalog
	rng     *rand.Rand
	params  Params
}

// New constructs a Selector over a loaded catalog.
func New(cat *catalog.Catalog, rng *rand.Rand, params Params) *Selector {
	if params.Diversity <= 0 {
		params.Diversity = 5
	}
	return &Selector{catalog: cat, rng: rng, params: params}
}

// Select chooses sections and clips for one station with the given target
// duration. The whole selection runs inside one pool transaction: the rng is
// only touched under the pool lock, which both serializes concurrent
// selections and keeps seeded runs deterministic when workers == 1.
//
// Fails with services.ErrInsufficientCatalog when fewer than Diversity
// sections still hold unused clips.
func (s *Selector) Select(pool *UsedPool, target time.Duration) (*Result, error) {
	var result *Result
	err := pool.Reserve(func(used func(string) bool) ([]string, error) {
		candidates := s.candidateSections(used)
		if len(candidates) < s.params.Diversity {
			return nil, services.Wrap(services.ErrInsufficientCatalog, "selector", "",
				fmt.Errorf("%d sections with unused clips remain, %d required", len(candidates), s.params.Diversity))
		}

		chosen := s.chooseSections(candidates)
		queues := make([][]catalog.Clip, len(chosen))
		sections := make([]string, len(chosen))
		for index, section := range chosen {
			sections[index] = section.ID
			queues[index] = s.shuffledUnused(section, used)
		}

		clips, total := fillRoundRobin(queues, target)
		result = &Result{
			Clips:       clips,
			Sections:    sections,
			Duration:    total,
			Underfilled: float64(total) < s.params.MinFillRatio*float64(target),
		}

		ids := make([]string, len(clips))
		for index, clip := range clips {
			ids[index] = clip.ID
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CandidateCount returns how many sections still hold at least one unused
// clip. Select enforces the diversity floor itself; this accessor exists for
// diagnostics and tests.
func (s *Selector) CandidateCount(pool *UsedPool) int {
	count := 0
	_ = pool.Reserve(func(used func(string) bool) ([]string, error) {
		count = len(s.candidateSections(used))
		return nil, nil
	})
	return count
}

func (s *Selector) candidateSections(used func(string) bool) []catalog.Section {
	var candidates []catalog.Section
	for _, section := range s.catalog.Sections() {
		for _, clip := range section.Clips {
			if !used(clip.ID) {
				candidates = append(candidates, section)
				break
			}
		}
	}
	return candidates
}

// chooseSections draws Diversity sections uniformly without replacement.
func (s *Selector) chooseSections(candidates []catalog.Section) []catalog.Section {
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[:s.params.Diversity]
}

func (s *Selector) shuffledUnused(section catalog.Section, used func(string) bool) []catalog.Clip {
	unused := make([]catalog.Clip, 0, len(section.Clips))
	for _, clip := range section.Clips {
		if !used(clip.ID) {
			unused = append(unused, clip)
		}
	}
	s.rng.Shuffle(len(unused), func(i, j int) {
		unused[i], unused[j] = unused[j], unused[i]
	})
	return unused
}

// fillRoundRobin consumes the per-section queues fairly, appending at most
// one clip per section per pass. A drawn clip that would push the cumulative
// duration past the target is discarded for this station (it stays unused
// globally); a section leaves the rotation once its queue is empty. The
// target is never exceeded, and exhaustion always terminates the loop.
func fillRoundRobin(queues [][]catalog.Clip, target time.Duration) ([]catalog.Clip, time.Duration) {
	var selected []catalog.Clip
	var total time.Duration

	active := len(queues)
	for active > 0 && total < target {
		active = 0
		for index := range queues {
			appended := false
			for len(queues[index]) > 0 && !appended {
				clip := queues[index][0]
				queues[index] = queues[index][1:]
				if total+clip.Duration <= target {
					selected = append(selected, clip)
					total += clip.Duration
					appended = true
				}
			}
			if len(queues[index]) > 0 {
				active++
			}
		}
	}
	return selected, total
}
