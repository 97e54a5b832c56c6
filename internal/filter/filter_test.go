package filter

import (
	"fmt"
	"reflect"
	"testing"

	"eoreview/internal/itemstore"
	"eoreview/internal/model"
)

func fixture() *itemstore.Snapshot {
	return itemstore.Build([]model.Item{
		{ID: "a", Subject: "Renal", Topic: "Diuretics", Title: "Loop"},
		{ID: "b", Subject: "Cardiology", TopicAttribute: "Pharm", Topic: "Beta blockers", Title: "Metoprolol"},
		{ID: "c", Subject: "cardiology", Topic: "Murmurs", Title: "MR"},
		{ID: "d", Subject: "Renal", SecondarySubject: "Acid-Base", Title: "RTA"},
		{ID: "e", Subject: "Cardiology", TopicAttribute: "Pharm", Topic: "Beta blockers", Title: "Atenolol"},
	})
}

func TestView_EmptySearchMatchesAll(t *testing.T) {
	t.Parallel()

	snap := fixture()
	var e Engine
	v := e.View(snap, model.Predicate{}, false, Sets{})
	if got := v.IDs(); !reflect.DeepEqual(got, []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("unexpected view: %v", got)
	}
}

func TestView_PredicatesAreConjunctive(t *testing.T) {
	t.Parallel()

	snap := fixture()
	sets := Sets{
		Flagged:   model.NewIDSet("b", "c", "d"),
		Completed: model.NewIDSet("c", "d", "e"),
		Hidden:    model.NewIDSet("d"),
	}
	var e Engine
	for _, search := range []string{"", "cardio", "renal", "beta", "zzz"} {
		for _, sorted := range []bool{false, true} {
			base := e.View(snap, model.Predicate{Search: search}, sorted, sets)
			for _, p := range []model.Predicate{
				{Search: search, FlagOnly: true},
				{Search: search, CompletedOnly: true},
				{Search: search, HideHidden: true},
				{Search: search, FlagOnly: true, CompletedOnly: true, HideHidden: true},
			} {
				sub := e.View(snap, p, sorted, sets)
				for _, id := range sub.IDs() {
					if !base.Contains(id) {
						t.Fatalf("search=%q pred=%+v: %s not in unfiltered view", search, p, id)
					}
				}
			}
		}
	}

	v := e.View(snap, model.Predicate{FlagOnly: true, CompletedOnly: true, HideHidden: true}, false, sets)
	if got := v.IDs(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("expected only c; got %v", got)
	}
}

func TestView_SortedOrder(t *testing.T) {
	t.Parallel()

	snap := fixture()
	var e Engine
	v := e.View(snap, model.Predicate{}, true, Sets{})
	// Lowercase collates before uppercase when letters are otherwise equal.
	want := []string{"c", "e", "b", "a", "d"}
	if got := v.IDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sorted view mismatch:\nwant %v\ngot  %v", want, got)
	}

	if got := Apply(snap, model.Predicate{}, true, Sets{}).IDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Apply disagrees with Engine: %v", got)
	}
}

func TestView_SortToggleRestoresCanonicalOrder(t *testing.T) {
	t.Parallel()

	snap := fixture()
	var e Engine
	orig := e.View(snap, model.Predicate{Search: "o"}, false, Sets{}).IDs()
	_ = e.View(snap, model.Predicate{Search: "o"}, true, Sets{})
	again := e.View(snap, model.Predicate{Search: "o"}, false, Sets{}).IDs()
	if !reflect.DeepEqual(orig, again) {
		t.Fatalf("sort on/off changed order: %v vs %v", orig, again)
	}
}

func TestEngine_MemoInvalidatedOnNewSnapshot(t *testing.T) {
	t.Parallel()

	var e Engine
	first := fixture()
	_ = e.View(first, model.Predicate{}, true, Sets{})

	second := itemstore.Build([]model.Item{{ID: "z", Subject: "B"}, {ID: "y", Subject: "A"}})
	if got := e.View(second, model.Predicate{}, true, Sets{}).IDs(); !reflect.DeepEqual(got, []string{"y", "z"}) {
		t.Fatalf("expected memo rebuilt for new snapshot; got %v", got)
	}
}

func TestView_IndexOf(t *testing.T) {
	t.Parallel()

	var items []model.Item
	for i := 0; i < 50; i++ {
		items = append(items, model.Item{ID: fmt.Sprintf("q%02d", i), Title: fmt.Sprintf("t%d", i%5)})
	}
	snap := itemstore.Build(items)
	var e Engine
	v := e.View(snap, model.Predicate{Search: "t3"}, false, Sets{})
	if v.Len() != 10 {
		t.Fatalf("expected 10 matches; got %d", v.Len())
	}
	if i, ok := v.IndexOf("q08"); !ok || i != 1 {
		t.Fatalf("expected q08 at 1; got %d %v", i, ok)
	}
	if _, ok := v.IndexOf("q00"); ok {
		t.Fatalf("q00 should not be in view")
	}
}
