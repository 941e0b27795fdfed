package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/courier-gateway/app/models"
)

func TestResolutionCacheConcurrentAccess(t *testing.T) {
	cache, err := NewResolutionCache("", 64, 0, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	const workers = 8
	const iterations = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				key := Fingerprint(models.CourierKhazenly, fmt.Sprintf("city-%d", i%10), "district")
				if i%2 == 0 {
					addr := models.ResolvedAddress{CityName: fmt.Sprintf("City %d", i%10)}
					if err := cache.Set(ctx, key, &addr); err != nil {
						t.Errorf("Set: %v", err)
						return
					}
				} else {
					if _, _, err := cache.Get(ctx, key); err != nil {
						t.Errorf("Get: %v", err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Every Get is either a hit or a miss; none may be lost.
	wantLookups := int64(workers * iterations / 2)
	if got := stats.TotalHits + stats.TotalMiss; got != wantLookups {
		t.Errorf("hits+misses = %d, want %d", got, wantLookups)
	}
}

func TestResolutionCacheStatsCounts(t *testing.T) {
	cache, err := NewResolutionCache("", 16, 0, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	key := Fingerprint(models.CourierAramex, "Cairo", "Maadi")
	if _, ok, _ := cache.Get(ctx, key); ok {
		t.Fatal("empty cache must miss")
	}
	addr := models.ResolvedAddress{CityName: "Cairo", DistrictName: "Maadi"}
	if err := cache.Set(ctx, key, &addr); err != nil {
		t.Fatal(err)
	}
	if got, ok, _ := cache.Get(ctx, key); !ok || got.DistrictName != "Maadi" {
		t.Fatalf("want cached Maadi, got %+v ok=%v", got, ok)
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalHits != 1 || stats.TotalMiss != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", stats.TotalHits, stats.TotalMiss)
	}
	if stats.TotalItems != 1 {
		t.Errorf("items = %d, want 1", stats.TotalItems)
	}
}
