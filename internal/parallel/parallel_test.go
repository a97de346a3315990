package parallel

import (
	"sort"
	"sync"
	"testing"
)

func TestForCoversRangeExactlyOnce(t *testing.T) {
	const n = 10000
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 100}

	var mu sync.Mutex
	counts := make([]int, n)
	For(n, func(start, end int) {
		mu.Lock()
		defer mu.Unlock()
		for i := start; i < end; i++ {
			counts[i]++
		}
	}, cfg)

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, c)
		}
	}
}

func TestForSequentialWhenDisabled(t *testing.T) {
	cfg := Config{Enabled: false}
	var calls [][2]int
	For(100, func(start, end int) {
		calls = append(calls, [2]int{start, end})
	}, cfg)

	if len(calls) != 1 || calls[0] != [2]int{0, 100} {
		t.Errorf("disabled config should make one sequential call, got %v", calls)
	}
}

func TestForSequentialBelowChunkSize(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 1000}
	var calls int
	For(10, func(start, end int) { calls++ }, cfg)
	if calls != 1 {
		t.Errorf("small inputs should run sequentially, got %d calls", calls)
	}
}

func TestForChunksAreDisjointAndOrdered(t *testing.T) {
	const n = 5000
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 500}

	var mu sync.Mutex
	var ranges [][2]int
	For(n, func(start, end int) {
		mu.Lock()
		ranges = append(ranges, [2]int{start, end})
		mu.Unlock()
	}, cfg)

	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	next := 0
	for _, r := range ranges {
		if r[0] != next {
			t.Fatalf("ranges %v leave a gap or overlap at %d", ranges, next)
		}
		if r[1] <= r[0] {
			t.Fatalf("empty range %v", r)
		}
		next = r[1]
	}
	if next != n {
		t.Fatalf("ranges %v do not cover [0, %d)", ranges, n)
	}
}

func TestForZeroItems(t *testing.T) {
	cfg := DefaultConfig()
	calls := 0
	For(0, func(start, end int) {
		calls++
		if start != end {
			t.Errorf("expected an empty range, got [%d, %d)", start, end)
		}
	}, cfg)
	if calls > 1 {
		t.Errorf("zero items should make at most one call, got %d", calls)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NumWorkers < 1 {
		t.Errorf("NumWorkers = %d, want >= 1", cfg.NumWorkers)
	}
	if cfg.MinChunkSize < 1 {
		t.Errorf("MinChunkSize = %d, want >= 1", cfg.MinChunkSize)
	}
}
