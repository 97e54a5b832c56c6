package itemstore

import (
	"strings"
	"testing"

	"eoreview/internal/model"
)

func sampleItems() []model.Item {
	return []model.Item{
		{ID: "1", Subject: "Cardiology", Topic: "Murmurs", Title: "Aortic Stenosis", Body: "<p>Crescendo <b>decrescendo</b></p>"},
		{ID: "2", Subject: "Renal", SecondarySubject: "Acid-Base", Title: "RTA", Exhibits: []model.Exhibit{
			"<table><tr><td>Bicarbonate</td></tr></table>",
			`<img src="https://cdn.example.com/hidden-word.png">`,
		}},
		{ID: "3", Subject: "Cardiology", Title: "Pericarditis"},
	}
}

func TestBuild_SearchIndex(t *testing.T) {
	t.Parallel()

	snap := Build(sampleItems())
	if snap.Len() != 3 {
		t.Fatalf("expected 3 items; got %d", snap.Len())
	}

	idx := snap.SearchIndex(0)
	for _, want := range []string{"cardiology", "murmurs", "aortic stenosis", "crescendo decrescendo"} {
		if !strings.Contains(idx, want) {
			t.Fatalf("expected %q in search index %q", want, idx)
		}
	}
	if strings.Contains(idx, "<b>") {
		t.Fatalf("expected markup stripped from search index: %q", idx)
	}

	idx = snap.SearchIndex(1)
	if !strings.Contains(idx, "bicarbonate") {
		t.Fatalf("expected inline exhibit text indexed: %q", idx)
	}
	if strings.Contains(idx, "hidden-word") {
		t.Fatalf("expected media reference exhibit skipped: %q", idx)
	}
}

func TestSnapshot_MatchesEmptySearch(t *testing.T) {
	t.Parallel()

	snap := Build(sampleItems())
	for i := 0; i < snap.Len(); i++ {
		if !snap.Matches(i, "") {
			t.Fatalf("empty search should match item %d", i)
		}
	}
	if snap.Matches(2, "murmurs") {
		t.Fatalf("item 3 should not match murmurs")
	}
}

func TestSnapshot_SubjectPalette(t *testing.T) {
	t.Parallel()

	snap := Build(sampleItems())
	if got := snap.Subjects(); len(got) != 2 || got[0] != "Cardiology" || got[1] != "Renal" {
		t.Fatalf("unexpected subjects: %#v", got)
	}
	if snap.ColorIndex("Cardiology") != 0 || snap.ColorIndex("Renal") != 1 {
		t.Fatalf("unexpected color slots")
	}

	var many []model.Item
	for i := 0; i < 8; i++ {
		many = append(many, model.Item{ID: string(rune('a' + i)), Subject: string(rune('A' + i))})
	}
	snap = Build(many)
	if got := snap.ColorIndex("G"); got != 0 {
		t.Fatalf("expected palette to wrap; got %d", got)
	}
}

func TestStore_LoadReplacesWholesale(t *testing.T) {
	t.Parallel()

	s := New()
	if s.Snapshot().Len() != 0 {
		t.Fatalf("expected empty initial snapshot")
	}
	first := s.Load(sampleItems())
	s.Load([]model.Item{{ID: "x", Subject: "Bar"}})

	if _, ok := s.Snapshot().Get("1"); ok {
		t.Fatalf("expected old items gone after reload")
	}
	if _, ok := first.Get("1"); !ok {
		t.Fatalf("expected earlier snapshot to stay intact")
	}
	if got := s.Snapshot().Subjects(); len(got) != 1 || got[0] != "Bar" {
		t.Fatalf("expected subjects rebuilt; got %#v", got)
	}
}

func TestBuild_DuplicateIDsKeepFirst(t *testing.T) {
	t.Parallel()

	snap := Build([]model.Item{{ID: "1", Title: "first"}, {ID: "1", Title: "second"}})
	if snap.Len() != 1 {
		t.Fatalf("expected duplicates dropped; got %d", snap.Len())
	}
	if it, _ := snap.Get("1"); it.Title != "first" {
		t.Fatalf("expected first occurrence; got %q", it.Title)
	}
}
