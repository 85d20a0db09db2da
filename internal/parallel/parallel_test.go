package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestForEach(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	var counter int64
	n := 1000
	seen := make([]bool, n)

	err := ForEach(context.Background(), n, func(_ context.Context, i int) error {
		atomic.AddInt64(&counter, 1)
		seen[i] = true
		return nil
	}, cfg)
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
	for i, ok := range seen {
		if !ok {
			t.Errorf("Missing item %d", i)
		}
	}
}

func TestForEach_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	order := make([]int, 0, 100)
	err := ForEach(context.Background(), 100, func(_ context.Context, i int) error {
		order = append(order, i)
		return nil
	}, cfg)
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("Expected in-order execution, got %d at %d", v, i)
		}
	}
}

func TestForEach_SmallBatch(t *testing.T) {
	// Small work units fall back to sequential.
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1

	err := ForEach(context.Background(), n, func(_ context.Context, _ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, cfg)
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestForEach_FirstError(t *testing.T) {
	boom := errors.New("boom")

	for _, cfg := range []Config{
		{Enabled: false},
		{Enabled: true, NumWorkers: 4, MinChunkSize: 1},
	} {
		err := ForEach(context.Background(), 64, func(_ context.Context, i int) error {
			if i == 10 {
				return boom
			}
			return nil
		}, cfg)
		if !errors.Is(err, boom) {
			t.Errorf("Expected boom (enabled=%v), got %v", cfg.Enabled, err)
		}
	}
}

func TestForEach_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var counter int64
	err := ForEach(ctx, 10, func(_ context.Context, _ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, Config{Enabled: false})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if counter != 0 {
		t.Errorf("Expected no work after cancellation, got %d", counter)
	}
}

func BenchmarkForEach(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			_ = ForEach(context.Background(), n, func(_ context.Context, j int) error {
				atomic.AddInt64(&sum, int64(j))
				return nil
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		seq := Config{Enabled: false}
		for i := 0; i < b.N; i++ {
			var sum int64
			_ = ForEach(context.Background(), n, func(_ context.Context, j int) error {
				sum += int64(j)
				return nil
			}, seq)
		}
	})
}
