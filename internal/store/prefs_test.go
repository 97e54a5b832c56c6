package store

import (
	"context"
	"reflect"
	"testing"

	"eoreview/internal/model"
)

func TestPrefs_LoadDefaults(t *testing.T) {
	t.Parallel()

	st, err := NewPrefs(NewMem()).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.CurrentID != "" || st.Search != "" || st.Sorted {
		t.Fatalf("unexpected pointer state: %+v", st)
	}
	if st.Appearance != AppearanceLight {
		t.Fatalf("appearance=%q want light", st.Appearance)
	}
	if st.Progress == nil || len(st.Progress) != 0 {
		t.Fatalf("progress=%v want empty map", st.Progress)
	}
	if st.History != nil || st.Flagged != nil || st.Hidden != nil || st.Permitted != nil {
		t.Fatalf("expected empty collections: %+v", st)
	}
}

func TestPrefs_RoundTrip(t *testing.T) {
	t.Parallel()

	p := NewPrefs(NewMem())
	if err := p.SaveCurrent("q2", "renal", true); err != nil {
		t.Fatalf("save current: %v", err)
	}
	history := []model.Checkpoint{{Search: "ren", ID: "q1"}, {Search: "cardio", ID: "q9"}}
	if err := p.SaveHistory(history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	if err := p.SaveProgress(map[string]int{"q1": 2, "q2": 1}); err != nil {
		t.Fatalf("save progress: %v", err)
	}
	if err := p.SaveFlagged([]string{"q3", "q1"}); err != nil {
		t.Fatalf("save flagged: %v", err)
	}
	if err := p.SaveHidden([]string{"q7"}); err != nil {
		t.Fatalf("save hidden: %v", err)
	}
	if err := p.SaveTest("s2"); err != nil {
		t.Fatalf("save test: %v", err)
	}
	if err := p.SaveAppearance("dark"); err != nil {
		t.Fatalf("save appearance: %v", err)
	}
	if err := p.SavePermitted([]string{"s1", "bar"}); err != nil {
		t.Fatalf("save permitted: %v", err)
	}
	if err := p.SaveRegistryKeys("k1", "k2"); err != nil {
		t.Fatalf("save keys: %v", err)
	}

	got, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := State{
		CurrentID:     "q2",
		Search:        "renal",
		Sorted:        true,
		Progress:      map[string]int{"q1": 2, "q2": 1},
		History:       history,
		Flagged:       []string{"q1", "q3"},
		Hidden:        []string{"q7"},
		Test:          "s2",
		Appearance:    AppearanceDark,
		AppearanceSet: true,
		Permitted:     []string{"s1", "bar"},
		Key1:          "k1",
		Key2:          "k2",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestPrefs_CorruptValuesDecodeToDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMem()
	for k, v := range map[string]string{
		KeyProgress:   "{not json",
		KeyHistory:    "[{]",
		KeyFlagged:    "q1,q2",
		KeyHidden:     "null",
		KeySorted:     "yes",
		KeyAppearance: "sepia",
	} {
		if err := kv.Set(ctx, k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	st, err := NewPrefs(kv).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.Progress) != 0 || st.History != nil || st.Flagged != nil || st.Hidden != nil {
		t.Fatalf("expected defaults, got %+v", st)
	}
	if st.Sorted {
		t.Fatalf("only \"1\" means sorted")
	}
	if st.Appearance != AppearanceLight {
		t.Fatalf("appearance=%q want light", st.Appearance)
	}
}

func TestPrefs_SortedFlagCleared(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMem()
	p := NewPrefs(kv)
	if err := p.SaveCurrent("q1", "", true); err != nil {
		t.Fatal(err)
	}
	if err := p.SaveCurrent("q1", "", false); err != nil {
		t.Fatal(err)
	}
	v, err := kv.Get(ctx, KeySorted)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "" {
		t.Fatalf("sorted=%q want empty", v)
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"s1", []string{"s1"}},
		{"s1, s2,,bar ", []string{"s1", "s2", "bar"}},
		{" , ", nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SplitList(%q)=%v want %v", tt.in, got, tt.want)
			}
		})
	}
}
