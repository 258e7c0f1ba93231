package indicator

import "fmt"

// Cache memoizes intermediate lines for the duration of a single Compute call.
// It is not safe for concurrent use and must not outlive the call.
type Cache struct {
	lines map[string]Line
	hits  int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		lines: make(map[string]Line),
		hits:  0,
	}
}

// Line returns the cached line for key, computing and storing it on a miss.
func (c *Cache) Line(key string, compute func() Line) Line {
	if line, ok := c.lines[key]; ok {
		c.hits++

		return line
	}

	line := compute()
	c.lines[key] = line

	return line
}

// Hits returns the number of lookups served from the cache.
func (c *Cache) Hits() int {
	return c.hits
}

// Reset drops every cached line.
func (c *Cache) Reset() {
	c.lines = make(map[string]Line)
	c.hits = 0
}

func cacheKey(source string, function string, period int) string {
	return fmt.Sprintf("%s:%s:%d", source, function, period)
}
