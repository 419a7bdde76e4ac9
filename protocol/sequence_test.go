package protocol

import (
	"sync"
	"testing"
)

func TestSequencerCycle(t *testing.T) {
	for _, seed := range []uint8{0, 1, 0x7F, 0xFF} {
		s := NewSequencer(seed)

		seen := make(map[uint8]bool, 256)
		first := s.Next()
		if first != seed {
			t.Errorf("seed %d: first id = %d", seed, first)
		}
		seen[first] = true

		for i := 1; i < 256; i++ {
			id := s.Next()
			if seen[id] {
				t.Fatalf("seed %d: duplicate id %d after %d calls", seed, id, i)
			}
			seen[id] = true
		}

		if wrapped := s.Next(); wrapped != first {
			t.Errorf("seed %d: call 257 = %d, want %d", seed, wrapped, first)
		}
	}
}

func TestRandomSequencerCycle(t *testing.T) {
	s := NewRandomSequencer()

	first := s.Next()
	seen := map[uint8]bool{first: true}
	for i := 1; i < 256; i++ {
		id := s.Next()
		if seen[id] {
			t.Fatalf("duplicate id %d after %d calls", id, i)
		}
		seen[id] = true
	}
	if wrapped := s.Next(); wrapped != first {
		t.Errorf("call 257 = %d, want %d", wrapped, first)
	}
}

func TestSequencerConcurrent(t *testing.T) {
	s := NewSequencer(200)

	const workers = 8
	const perWorker = 32 // 256 ids in total

	var mu sync.Mutex
	var wg sync.WaitGroup
	counts := make(map[uint8]int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint8, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, s.Next())
			}
			mu.Lock()
			for _, id := range local {
				counts[id]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(counts) != 256 {
		t.Errorf("got %d distinct ids, want 256", len(counts))
	}
	for id, n := range counts {
		if n != 1 {
			t.Errorf("id %d allocated %d times", id, n)
		}
	}
}
