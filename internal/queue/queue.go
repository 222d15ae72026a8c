// Package queue holds the crawl state: the frontier of pending URLs and the
// set of URLs already processed.
package queue

import (
	"sync"
)

// Frontier is a set of URLs waiting to be processed. Pop order is not
// specified; callers must not rely on breadth-first or insertion order.
type Frontier struct {
	pending map[string]struct{}
	mu      sync.Mutex
}

// NewFrontier creates a Frontier seeded with urls.
func NewFrontier(urls ...string) *Frontier {
	f := &Frontier{pending: make(map[string]struct{})}
	for _, u := range urls {
		f.pending[u] = struct{}{}
	}
	return f
}

// Add inserts url. It reports false if url was already pending.
func (f *Frontier) Add(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.pending[url]; ok {
		return false
	}
	f.pending[url] = struct{}{}
	return true
}

// Pop removes and returns an arbitrary pending URL.
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for url := range f.pending {
		delete(f.pending, url)
		return url, true
	}
	return "", false
}

// Len returns the number of pending URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Visited is the set of URLs that have been taken for processing. URLs are
// never removed.
type Visited struct {
	seen map[string]struct{}
	mu   sync.Mutex
}

// NewVisited creates an empty Visited set.
func NewVisited() *Visited {
	return &Visited{seen: make(map[string]struct{})}
}

// Mark records url and reports whether it was newly added. Check and insert
// happen under one lock.
func (v *Visited) Mark(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[url]; ok {
		return false
	}
	v.seen[url] = struct{}{}
	return true
}

// Contains reports whether url has been visited.
func (v *Visited) Contains(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[url]
	return ok
}

// Len returns the number of visited URLs.
func (v *Visited) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
