package repository

import (
	"sort"
	"sync"
)

// RouteTable maps source chat IDs to the set of destination chat IDs a
// qualifying message fans out to. Readers and writers may run concurrently;
// ReloadFrom swaps in a freshly built map so a concurrent Resolve observes
// either the old table or the new one, never a mix.
type RouteTable struct {
	mu     sync.RWMutex
	routes map[int64]map[int64]struct{}
}

func NewRouteTable() *RouteTable {
	return &RouteTable{routes: make(map[int64]map[int64]struct{})}
}

// Resolve returns the destinations configured for source, sorted for
// deterministic fan-out order. An empty slice means "no route"; that is not
// an error, the caller drops the message.
func (t *RouteTable) Resolve(source int64) []int64 {
	t.mu.RLock()
	set := t.routes[source]
	out := make([]int64, 0, len(set))
	for dest := range set {
		out = append(out, dest)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Add registers a source→destination pair. Adding an existing pair is a
// no-op that still succeeds.
func (t *RouteTable) Add(source, dest int64) error {
	if source == 0 || dest == 0 {
		return ErrInvalidChatID
	}
	if source == dest {
		return ErrSelfRoute
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.routes[source]
	if !ok {
		set = make(map[int64]struct{})
		t.routes[source] = set
	}
	set[dest] = struct{}{}
	return nil
}

// Remove drops all destinations for source.
func (t *RouteTable) Remove(source int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.routes[source]; !ok {
		return ErrRouteNotFound
	}
	delete(t.routes, source)
	return nil
}

// ReloadFrom atomically replaces the whole table with the given snapshot.
// The snapshot is validated and copied before the swap, so a validation
// failure leaves the current table untouched.
func (t *RouteTable) ReloadFrom(snapshot map[int64][]int64) error {
	fresh := make(map[int64]map[int64]struct{}, len(snapshot))
	for source, dests := range snapshot {
		if source == 0 {
			return ErrInvalidChatID
		}
		set := make(map[int64]struct{}, len(dests))
		for _, dest := range dests {
			if dest == 0 {
				return ErrInvalidChatID
			}
			if dest == source {
				return ErrSelfRoute
			}
			set[dest] = struct{}{}
		}
		if len(set) > 0 {
			fresh[source] = set
		}
	}

	t.mu.Lock()
	t.routes = fresh
	t.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the table, destinations sorted.
func (t *RouteTable) Snapshot() map[int64][]int64 {
	t.mu.RLock()
	out := make(map[int64][]int64, len(t.routes))
	for source, set := range t.routes {
		dests := make([]int64, 0, len(set))
		for dest := range set {
			dests = append(dests, dest)
		}
		out[source] = dests
	}
	t.mu.RUnlock()

	for _, dests := range out {
		sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })
	}
	return out
}

// Len returns the number of sources with at least one destination.
func (t *RouteTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}
