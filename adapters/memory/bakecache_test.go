package memory_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/artpar/themebake/adapters/memory"
	"github.com/artpar/themebake/domain/theme"
)

func cacheKey(field string) theme.CacheKey {
	return theme.CacheKey{ThemeKey: "k", Target: theme.TargetDesktop, Field: field, CompilerVersion: 1}
}

func TestBakeCache_GetSet(t *testing.T) {
	c := memory.NewBakeCache()

	if _, ok := c.Get(cacheKey("header")); ok {
		t.Fatal("new cache should be empty")
	}

	c.Set(cacheKey("header"), "body { }")
	got, ok := c.Get(cacheKey("header"))
	if !ok || got != "body { }" {
		t.Errorf("Get = %q, %v", got, ok)
	}

	c.Set(cacheKey("header"), "overwritten")
	if got, _ := c.Get(cacheKey("header")); got != "overwritten" {
		t.Errorf("after overwrite Get = %q", got)
	}
}

func TestBakeCache_EmptyStringIsHit(t *testing.T) {
	c := memory.NewBakeCache()
	c.Set(cacheKey("footer"), "")

	got, ok := c.Get(cacheKey("footer"))
	if !ok {
		t.Fatal("cached empty string should be a hit")
	}
	if got != "" {
		t.Errorf("Get = %q, want empty", got)
	}
}

func TestBakeCache_KeyIncludesCompilerVersion(t *testing.T) {
	c := memory.NewBakeCache()
	k := cacheKey("header")
	c.Set(k, "v1 output")

	k.CompilerVersion = 2
	if _, ok := c.Get(k); ok {
		t.Error("entry baked at version 1 leaked to version 2")
	}
}

func TestBakeCache_Clear(t *testing.T) {
	c := memory.NewBakeCache()
	c.Set(cacheKey("a"), "1")
	c.Set(cacheKey("b"), "2")

	gen := c.Generation()
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
	if c.Generation() == gen {
		t.Error("Clear should advance the generation")
	}
}

func TestBakeCache_SetIfGeneration(t *testing.T) {
	c := memory.NewBakeCache()

	gen := c.Generation()
	c.Clear()
	if c.SetIfGeneration(gen, cacheKey("stale"), "old") {
		t.Error("write from before Clear should be rejected")
	}
	if _, ok := c.Get(cacheKey("stale")); ok {
		t.Error("stale value was stored")
	}

	if !c.SetIfGeneration(c.Generation(), cacheKey("fresh"), "new") {
		t.Error("write at current generation should succeed")
	}
}

func TestBakeCache_Concurrent(t *testing.T) {
	c := memory.NewBakeCache()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				k := cacheKey(fmt.Sprintf("f%d", j%10))
				c.Set(k, fmt.Sprintf("%d-%d", i, j))
				c.Get(k)
				if j%50 == 0 {
					c.Clear()
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 10 {
		t.Errorf("Len = %d, want at most 10 distinct keys", c.Len())
	}
}
