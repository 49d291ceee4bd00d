package selection

import "sync"

// UsedPool tracks every clip identifier consumed by any station so far in the
// run. It grows monotonically and is shared by all stations.
type UsedPool struct {
	mu   sync.Mutex
	used map[string]struct{}
}

// NewUsedPool returns an empty pool.
func NewUsedPool() *UsedPool {
	return &UsedPool{used: make(map[string]struct{})}
}

// Reserve runs fn as a single check-and-reserve transaction. fn receives a
// membership probe over the current pool state and returns the clip IDs to
// consume; they are committed before the pool lock is released, so two
// concurrently selecting stations can never reserve the same clip.
func (p *UsedPool) Reserve(fn func(used func(string) bool) ([]string, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids, err := fn(func(id string) bool {
		_, ok := p.used[id]
		return ok
	})
	if err != nil {
		return err
	}
	for _, id := range ids {
		p.used[id] = struct{}{}
	}
	return nil
}

// Contains reports whether a clip has already been consumed.
func (p *UsedPool) Contains(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.used[id]
	return ok
}

// Len returns the number of consumed clips.
func (p *UsedPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.used)
}
