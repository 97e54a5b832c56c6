// Package filter computes the filtered, optionally sorted view of the active
// collection.
package filter

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"eoreview/internal/itemstore"
	"eoreview/internal/model"
)

// Sets carries the id sets predicates are evaluated against.
type Sets struct {
	Flagged   model.IDSet
	Completed model.IDSet
	Hidden    model.IDSet
}

// View is an ordered subset of the collection.
type View struct {
	items []model.Item
	pos   map[string]int
}

func newView(items []model.Item) View {
	pos := make(map[string]int, len(items))
	for i, it := range items {
		pos[it.ID] = i
	}
	return View{items: items, pos: pos}
}

func (v View) Len() int            { return len(v.items) }
func (v View) At(i int) model.Item { return v.items[i] }
func (v View) Items() []model.Item { return v.items }

func (v View) Contains(id string) bool {
	_, ok := v.pos[id]
	return ok
}

// IndexOf returns the position of id in the view.
func (v View) IndexOf(id string) (int, bool) {
	i, ok := v.pos[id]
	return i, ok
}

// First returns the id of the first item, or "" for an empty view.
func (v View) First() string {
	if len(v.items) == 0 {
		return ""
	}
	return v.items[0].ID
}

// IDs returns the item ids in view order.
func (v View) IDs() []string {
	out := make([]string, len(v.items))
	for i, it := range v.items {
		out[i] = it.ID
	}
	return out
}

// Engine evaluates predicates against snapshots. It memoizes the sorted
// ordering per snapshot; results are identical to Apply.
type Engine struct {
	mu     sync.Mutex
	snap   *itemstore.Snapshot
	sorted []int
}

// View evaluates p over snap. Search runs first, then the flag, completed and
// hidden filters, then the sort reorder.
func (e *Engine) View(snap *itemstore.Snapshot, p model.Predicate, sorted bool, sets Sets) View {
	order := canonicalOrder(snap.Len())
	if sorted {
		order = e.sortedOrder(snap)
	}
	return collect(snap, order, p, sets)
}

func (e *Engine) sortedOrder(snap *itemstore.Snapshot) []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap != snap {
		e.snap = snap
		e.sorted = SortOrder(snap)
	}
	return e.sorted
}

// Apply is the unmemoized form of Engine.View.
func Apply(snap *itemstore.Snapshot, p model.Predicate, sorted bool, sets Sets) View {
	v := collect(snap, canonicalOrder(snap.Len()), p, sets)
	if sorted {
		items := append([]model.Item(nil), v.items...)
		SortItems(items)
		v = newView(items)
	}
	return v
}

func canonicalOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func collect(snap *itemstore.Snapshot, order []int, p model.Predicate, sets Sets) View {
	out := make([]model.Item, 0, len(order))
	for _, i := range order {
		if !snap.Matches(i, p.Search) {
			continue
		}
		it := snap.At(i)
		if p.FlagOnly && !sets.Flagged.Has(it.ID) {
			continue
		}
		if p.CompletedOnly && !sets.Completed.Has(it.ID) {
			continue
		}
		if p.HideHidden && sets.Hidden.Has(it.ID) {
			continue
		}
		out = append(out, it)
	}
	return newView(out)
}

// SortOrder returns canonical positions reordered by the composite sort key.
func SortOrder(snap *itemstore.Snapshot) []int {
	order := canonicalOrder(snap.Len())
	c := newCollator()
	sort.SliceStable(order, func(a, b int) bool {
		return compare(c, snap.At(order[a]), snap.At(order[b])) < 0
	})
	return order
}

// SortItems sorts items in place by subject pair, topic attribute, topic and
// title. The sort is stable.
func SortItems(items []model.Item) {
	c := newCollator()
	sort.SliceStable(items, func(a, b int) bool {
		return compare(c, items[a], items[b]) < 0
	})
}

func newCollator() *collate.Collator {
	return collate.New(language.English)
}

func compare(c *collate.Collator, a, b model.Item) int {
	if r := c.CompareString(a.SubjectPair(), b.SubjectPair()); r != 0 {
		return r
	}
	if r := c.CompareString(a.TopicAttribute, b.TopicAttribute); r != 0 {
		return r
	}
	if r := c.CompareString(a.Topic, b.Topic); r != 0 {
		return r
	}
	return c.CompareString(a.Title, b.Title)
}
