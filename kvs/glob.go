package kvs

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
)

// globCache compiles and caches glob.Glob values by pattern string, so a
// repeated scan with the same ns/name pattern doesn't recompile it.
type globCache struct {
	mu     sync.RWMutex
	byText map[string]glob.Glob
}

func newGlobCache() *globCache {
	return &globCache{byText: make(map[string]glob.Glob)}
}

func (c *globCache) compile(pattern string) (glob.Glob, error) {
	if pattern == "" {
		pattern = "*"
	}
	c.mu.RLock()
	g, ok := c.byText[pattern]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("kvs: pattern %q: %w", pattern, ErrInvalidPattern)
	}

	c.mu.Lock()
	c.byText[pattern] = g
	c.mu.Unlock()
	return g, nil
}

func (c *globCache) compilePair(nsPattern, namePattern string) (glob.Glob, glob.Glob, error) {
	nsGlob, err := c.compile(nsPattern)
	if err != nil {
		return nil, nil, err
	}
	nameGlob, err := c.compile(namePattern)
	if err != nil {
		return nil, nil, err
	}
	return nsGlob, nameGlob, nil
}
