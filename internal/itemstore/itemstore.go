// Package itemstore holds the active collection of items together with the
// lookup structures derived from it.
package itemstore

import (
	"strings"
	"sync/atomic"

	"eoreview/internal/model"
	"eoreview/internal/richtext"
)

// PaletteSize is the number of subject colors rows cycle through.
const PaletteSize = 6

// Snapshot is an immutable view of one loaded collection.
// Every derived index in a snapshot was built from the same items.
type Snapshot struct {
	items    []model.Item
	index    map[string]int
	search   []string
	subjects []string
	subjIdx  map[string]int
}

// Store publishes snapshots. Readers always see a fully built snapshot.
type Store struct {
	cur atomic.Pointer[Snapshot]
}

func New() *Store {
	s := &Store{}
	s.cur.Store(Build(nil))
	return s
}

// Load replaces the active collection.
func (s *Store) Load(items []model.Item) *Snapshot {
	snap := Build(items)
	s.cur.Store(snap)
	return snap
}

// Snapshot returns the current collection.
func (s *Store) Snapshot() *Snapshot {
	return s.cur.Load()
}

// Build derives a snapshot from items. Items with duplicate ids keep their
// first occurrence.
func Build(items []model.Item) *Snapshot {
	snap := &Snapshot{
		items:   make([]model.Item, 0, len(items)),
		index:   make(map[string]int, len(items)),
		subjIdx: map[string]int{},
	}
	for _, it := range items {
		if _, dup := snap.index[it.ID]; dup {
			continue
		}
		snap.index[it.ID] = len(snap.items)
		snap.items = append(snap.items, it)
		snap.search = append(snap.search, SearchText(it))
		if _, ok := snap.subjIdx[it.Subject]; !ok {
			snap.subjIdx[it.Subject] = len(snap.subjects)
			snap.subjects = append(snap.subjects, it.Subject)
		}
	}
	return snap
}

// SearchText is the lowercased text an item is matched against: its tags, its
// body text, and the text of every exhibit that is not a media reference.
func SearchText(it model.Item) string {
	parts := []string{it.Subject, it.SecondarySubject, it.TopicAttribute, it.Topic, it.Title, richtext.PlainText(it.Body)}
	for _, ex := range it.Exhibits {
		if richtext.IsReference(string(ex)) {
			continue
		}
		parts = append(parts, richtext.PlainText(string(ex)))
	}
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return strings.Join(parts, " ")
}

func (s *Snapshot) Len() int { return len(s.items) }

// Items returns the collection in canonical order. Callers must not modify it.
func (s *Snapshot) Items() []model.Item { return s.items }

func (s *Snapshot) At(i int) model.Item { return s.items[i] }

// Position returns the canonical position of id.
func (s *Snapshot) Position(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

func (s *Snapshot) Get(id string) (model.Item, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Item{}, false
	}
	return s.items[i], true
}

// SearchIndex returns the precomputed search text for the item at position i.
func (s *Snapshot) SearchIndex(i int) string { return s.search[i] }

// Matches reports whether the item at position i contains search.
// An empty search matches everything.
func (s *Snapshot) Matches(i int, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(s.search[i], search)
}

// Subjects returns distinct subjects in first-appearance order.
func (s *Snapshot) Subjects() []string { return s.subjects }

// ColorIndex returns the palette slot for an item's subject.
func (s *Snapshot) ColorIndex(subject string) int {
	i, ok := s.subjIdx[subject]
	if !ok {
		return 0
	}
	return i % PaletteSize
}
