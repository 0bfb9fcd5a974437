package driver_test

import (
	"context"
	"testing"

	"mcc/internal/driver"
	"mcc/internal/target"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := driver.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	key := driver.NewCacheKey("x86_64-linux", "int main(void){return 0;}")
	var got driver.DiskPayload
	if ok, err := cache.Get(key, &got); err != nil || ok {
		t.Fatalf("empty cache hit: ok=%v err=%v", ok, err)
	}
	if err := cache.Put(key, &driver.DiskPayload{Triple: "x86_64-linux", Assembly: "text"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := cache.Get(key, &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Assembly != "text" || got.Triple != "x86_64-linux" {
		t.Fatalf("payload mismatch: %+v", got)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if ok, _ := cache.Get(key, &got); ok {
		t.Fatalf("entry survived DropAll")
	}
}

func TestCacheKeyDependsOnTarget(t *testing.T) {
	const src = "int main(void){return 0;}"
	if driver.NewCacheKey("x86_64-linux", src) == driver.NewCacheKey("x86_64-darwin", src) {
		t.Fatalf("cache key ignores the target")
	}
	if driver.NewCacheKey("x86_64-linux", src) != driver.NewCacheKey("x86_64-linux", src) {
		t.Fatalf("cache key is not deterministic")
	}
}

func TestCompileUsesDiskCache(t *testing.T) {
	cache, err := driver.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	ctx := context.Background()
	const src = "int main(void){return 3;}"

	first := driver.NewDatabase(driver.Options{Target: target.X86_64Linux(), Cache: cache})
	first.SetSource("c.c", src)
	cold, err := driver.Compile(ctx, first, "c.c", driver.Callbacks{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if cold.Cached {
		t.Fatalf("cold compile reported a cache hit")
	}

	second := driver.NewDatabase(driver.Options{Target: target.X86_64Linux(), Cache: cache})
	second.SetSource("c.c", src)
	warm, err := driver.Compile(ctx, second, "c.c", driver.Callbacks{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !warm.Cached || warm.Assembly != cold.Assembly {
		t.Fatalf("warm compile: cached=%v, same assembly=%v", warm.Cached, warm.Assembly == cold.Assembly)
	}
	for _, s := range second.Stats() {
		if s.Executions != 0 {
			t.Fatalf("%s executed on a cache hit", s.Name)
		}
	}
}

func TestCompileDoesNotCacheFailures(t *testing.T) {
	cache, err := driver.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	const src = "int f(){x=1;}"
	db := driver.NewDatabase(driver.Options{Target: target.X86_64Linux(), Cache: cache})
	db.SetSource("bad.c", src)
	if _, err := driver.Compile(context.Background(), db, "bad.c", driver.Callbacks{}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var payload driver.DiskPayload
	if ok, _ := cache.Get(driver.NewCacheKey("x86_64-linux", src), &payload); ok {
		t.Fatalf("failed unit was cached")
	}
}
