package download

import (
	"sort"

	"yt-dl-archiver/internal/model"
)

// Entry is one collection member together with its bookkeeping.
type Entry struct {
	Media model.MediaInfo
	// Order is the monotonically increasing insertion index; re-inserting
	// an existing key renumbers it to "now".
	Order int
	// Comment carries provenance for entries that entered outside the
	// normal live-download path ("from recovery file of pid 123", ...).
	Comment string
}

// Collection is the cross-URL set of completed media: an insertion-order
// preserving map keyed by provider-id. Last write wins on duplicate keys,
// intentionally, because a later observation (e.g. a filename back-fill)
// supersedes an earlier partial one.
type Collection struct {
	entries   map[string]*Entry
	nextOrder int
	// unreconciled is set when any entry was inserted via a non-primary
	// path and may not be reflected in the persistent archive yet
	unreconciled bool
}

func NewCollection() *Collection {
	return &Collection{entries: make(map[string]*Entry)}
}

// Insert adds media via the primary (live download) path.
func (c *Collection) Insert(media model.MediaInfo) {
	c.insert(media, "", false)
}

// InsertRecovered adds media via a non-primary path with a provenance
// comment and marks the collection as needing archive reconciliation.
func (c *Collection) InsertRecovered(media model.MediaInfo, comment string) {
	c.insert(media, comment, true)
}

func (c *Collection) insert(media model.MediaInfo, comment string, recovered bool) {
	order := c.nextOrder
	c.nextOrder++
	c.entries[media.Key()] = &Entry{Media: media, Order: order, Comment: comment}
	if recovered {
		c.unreconciled = true
	}
}

// Get returns the entry for a collection key, or nil.
func (c *Collection) Get(key string) *Entry {
	return c.entries[key]
}

func (c *Collection) Len() int {
	return len(c.entries)
}

// NeedsReconcile reports whether any entry entered via a non-primary path.
func (c *Collection) NeedsReconcile() bool {
	return c.unreconciled
}

// Sorted returns all entries in insertion order. The entries are shared
// with the collection; callers treat them as read-only snapshots.
func (c *Collection) Sorted() []*Entry {
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
