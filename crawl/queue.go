// BFS frontier over normalized URLs. Deduplication happens on the
// normalized form, so "/docs#intro" and "/docs/" collapse into one
// entry, and a limit bounds how many unique URLs are accepted.
package crawl

// Queue is a bounded BFS queue with normalized-URL deduplication.
type Queue struct {
	items   []string
	visited map[string]bool
	idx     int // current read position
	limit   int // max unique URLs accepted; 0 means unbounded
}

// NewQueue creates an empty Queue accepting at most limit unique URLs.
func NewQueue(limit int) *Queue {
	return &Queue{
		visited: make(map[string]bool),
		limit:   limit,
	}
}

// Add normalizes and enqueues a URL. It reports whether the URL was
// accepted; already-seen URLs and adds past the limit are dropped.
func (q *Queue) Add(rawURL string) bool {
	u := NormalizeURL(rawURL)
	if q.visited[u] {
		return false
	}
	if q.limit > 0 && len(q.visited) >= q.limit {
		return false
	}
	q.visited[u] = true
	q.items = append(q.items, u)
	return true
}

// HasNext returns true if there are unprocessed URLs.
func (q *Queue) HasNext() bool {
	return q.idx < len(q.items)
}

// Next returns the next unprocessed URL and advances the pointer.
func (q *Queue) Next() string {
	url := q.items[q.idx]
	q.idx++
	return url
}

// Visited returns the total number of unique URLs seen.
func (q *Queue) Visited() int {
	return len(q.visited)
}

// All returns all discovered URLs (in BFS order).
func (q *Queue) All() []string {
	return q.items
}
