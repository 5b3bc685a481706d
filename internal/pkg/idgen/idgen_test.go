package idgen

import (
	"sync"
	"testing"
)

func TestNew_RejectsOutOfRangeNode(t *testing.T) {
	if _, err := New(1024); err == nil {
		t.Fatal("expected error for node 1024")
	}
	if _, err := New(-1); err == nil {
		t.Fatal("expected error for node -1")
	}
}

func TestNextID_UniqueAcrossGoroutines(t *testing.T) {
	g, err := New(7)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	const workers, perWorker = 8, 500
	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, g.NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if id <= 0 {
					t.Errorf("expected positive id, got %d", id)
				}
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique ids, got %d", workers*perWorker, len(seen))
	}
}
