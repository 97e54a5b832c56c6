package model

import (
	"sort"
	"strings"
)

// Item is one educational objective. Items are immutable once loaded.
type Item struct {
	ID               string    `json:"qid"`
	Subject          string    `json:"subject"`
	SecondarySubject string    `json:"secondarySubject"`
	TopicAttribute   string    `json:"topicAttribute"`
	Topic            string    `json:"topic"`
	Title            string    `json:"title"`
	Body             string    `json:"text"`
	Exhibits         []Exhibit `json:"exhibits"`
}

// Exhibit is an auxiliary HTML block attached to an item, addressed by index.
type Exhibit string

// SubjectPair is the combined subject used as the first sort key.
func (it Item) SubjectPair() string {
	if it.SecondarySubject == "" {
		return it.Subject
	}
	return it.Subject + "-" + it.SecondarySubject
}

// Tags returns the distinct non-empty categorical tags in display order.
func (it Item) Tags() []string {
	out := make([]string, 0, 5)
	seen := map[string]bool{}
	for _, t := range []string{it.Subject, it.SecondarySubject, it.TopicAttribute, it.Topic, it.Title} {
		if strings.TrimSpace(t) == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Checkpoint is one entry of the back-navigation history.
type Checkpoint struct {
	Search string `json:"search"`
	ID     string `json:"qid"`
}

// Predicate is the active filter state. Search is stored lowercased and trimmed.
type Predicate struct {
	Search        string `json:"search"`
	FlagOnly      bool   `json:"flagOnly"`
	CompletedOnly bool   `json:"completedOnly"`
	// HideHidden excludes items in the hidden set.
	HideHidden bool `json:"hideHidden"`
}

// NormalizeSearch lowercases and trims a raw search string.
func NormalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TestType identifies one content pack.
type TestType struct {
	Key     string `json:"key"`
	Display string `json:"display"`
}

var (
	TestStep1 = TestType{Key: "s1", Display: "Step 1"}
	TestStep2 = TestType{Key: "s2", Display: "Step 2"}
	TestBar   = TestType{Key: "bar", Display: "Bar"}
)

// KnownTestTypes lists every test type in canonical order.
func KnownTestTypes() []TestType {
	return []TestType{TestStep1, TestStep2, TestBar}
}

// LookupTestType returns the known test type for key.
func LookupTestType(key string) (TestType, bool) {
	key = strings.TrimSpace(key)
	for _, t := range KnownTestTypes() {
		if t.Key == key {
			return t, true
		}
	}
	return TestType{}, false
}

// IDSet is a set of item ids.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string)    { s[id] = struct{}{} }
func (s IDSet) Remove(id string) { delete(s, id) }

// Toggle flips membership and reports whether id is now present.
func (s IDSet) Toggle(id string) bool {
	if s.Has(id) {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
