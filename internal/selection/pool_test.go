package selection

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestReserveCommitsReturnedIDs(t *testing.T) {
	pool := NewUsedPool()
	err := pool.Reserve(func(used func(string) bool) ([]string, error) {
		if used("a") {
			t.Fatal("fresh pool should not contain a")
		}
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !pool.Contains("a") || !pool.Contains("b") || pool.Len() != 2 {
		t.Fatalf("reservation not committed: len=%d", pool.Len())
	}
}

func TestReserveErrorCommitsNothing(t *testing.T) {
	pool := NewUsedPool()
	wantErr := errors.New("nope")
	err := pool.Reserve(func(func(string) bool) ([]string, error) {
		return []string{"a"}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if pool.Len() != 0 {
		t.Fatal("failed transaction must not reserve clips")
	}
}

func TestReserveIsAtomicUnderConcurrency(t *testing.T) {
	pool := NewUsedPool()
	const workers = 16

	var wg sync.WaitGroup
	claims := make([][]string, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			_ = pool.Reserve(func(used func(string) bool) ([]string, error) {
				// Every worker tries to claim the same candidate set;
				// each clip must end up with exactly one owner.
				var ids []string
				for i := 0; i < 4; i++ {
					id := fmt.Sprintf("clip-%d", i)
					if !used(id) {
						ids = append(ids, id)
					}
				}
				claims[w] = ids
				return ids, nil
			})
		}(w)
	}
	wg.Wait()

	owners := make(map[string]int)
	for _, ids := range claims {
		for _, id := range ids {
			owners[id]++
		}
	}
	if len(owners) != 4 {
		t.Fatalf("expected 4 claimed clips, got %d", len(owners))
	}
	for id, count := range owners {
		if count != 1 {
			t.Fatalf("clip %s claimed %d times", id, count)
		}
	}
	if pool.Len() != 4 {
		t.Fatalf("pool should hold 4 clips, has %d", pool.Len())
	}
}
