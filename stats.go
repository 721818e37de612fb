package filecache

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"
)

// Stats is a snapshot of cache statistics.
type Stats struct {
	Hits        int64
	Misses      int64
	Cleanups    int64
	Evictions   int64
	CloseErrors int64
	// Count is the number of resources currently registered.
	Count int
	// Buckets is the number of distinct keys currently registered.
	Buckets int
}

// HitRatio returns hits / (hits + misses), or 0 before the first acquire.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d cleanups=%d evictions=%d close_errors=%d count=%d",
		s.Hits, s.Misses, s.Cleanups, s.Evictions, s.CloseErrors, s.Count)
}

// Stats returns current statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Cleanups:    c.cleanups.Load(),
		Evictions:   c.evictions.Load(),
		CloseErrors: c.closeErrors.Load(),
		Count:       c.dir.Len(),
		Buckets:     c.dir.Buckets(),
	}
}

// Entry describes one cached resource.
type Entry struct {
	Key          any
	Location     string
	State        string
	Created      time.Time
	LastAccessed time.Time
	AccessCount  int64
}

// Entries lists every cached resource, least recently used first.
func (c *Cache) Entries() []Entry {
	slots := c.dir.Slots()
	out := make([]Entry, 0, len(slots))
	for _, s := range slots {
		out = append(out, Entry{
			Key:          s.Key(),
			Location:     s.Resource().Location(),
			State:        s.State().String(),
			Created:      s.Created(),
			LastAccessed: s.LastAccessed(),
			AccessCount:  s.AccessCount(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAccessed.Before(out[j].LastAccessed)
	})
	return out
}

// ShowCache writes a table of the cached resources followed by the stats.
func (c *Cache) ShowCache(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLOCATION\tSTATE\tACCESSES\tLAST ACCESS")
	for _, e := range c.Entries() {
		fmt.Fprintf(tw, "%v\t%s\t%s\t%d\t%s\n",
			e.Key, e.Location, e.State, e.AccessCount, e.LastAccessed.Format(time.RFC3339Nano))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, c.Stats())
	return err
}
