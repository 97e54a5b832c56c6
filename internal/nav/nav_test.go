package nav

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"eoreview/internal/itemstore"
	"eoreview/internal/model"
	"eoreview/internal/vlist"
)

type fakePersister struct {
	currents  int
	histories int
	progress  int
	flagged   []string
	hidden    []string
	lastHist  []model.Checkpoint
}

func (p *fakePersister) SaveCurrent(string, string, bool) error {
	p.currents++
	return nil
}

func (p *fakePersister) SaveHistory(h []model.Checkpoint) error {
	p.histories++
	p.lastHist = append([]model.Checkpoint(nil), h...)
	return nil
}

func (p *fakePersister) SaveProgress(map[string]int) error {
	p.progress++
	return nil
}

func (p *fakePersister) SaveFlagged(ids []string) error {
	p.flagged = ids
	return nil
}

func (p *fakePersister) SaveHidden(ids []string) error {
	p.hidden = ids
	return nil
}

type recordingHooks struct {
	current []string
	index   int
	total   int
	exhibit int
}

func (h *recordingHooks) OnItemBecameCurrent(it model.Item) {
	h.current = append(h.current, it.ID)
}

func (h *recordingHooks) OnResultCountChanged(index, total int) {
	h.index, h.total = index, total
}

func (h *recordingHooks) OnExhibitRequested(_ model.Item, i int) {
	h.exhibit = i
}

func makeItems(n int) []model.Item {
	subjects := []string{"Cardiology", "Renal", "Neuro", "Pulm"}
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:      fmt.Sprintf("q%05d", i),
			Subject: subjects[(i*7)%len(subjects)],
			Topic:   fmt.Sprintf("topic %d", i%13),
			Title:   fmt.Sprintf("title %d", i),
		}
	}
	return items
}

type harness struct {
	c       *Controller
	r       *vlist.Renderer[string]
	persist *fakePersister
	hooks   *recordingHooks
}

func newHarness(t *testing.T, n, viewport, overscan int, sess *Session) harness {
	t.Helper()
	store := itemstore.New()
	store.Load(makeItems(n))
	r := vlist.New(nil, func(it model.Item, hl bool) string { return it.ID }, vlist.WithViewport(viewport), vlist.WithOverscan(overscan))
	p := &fakePersister{}
	h := &recordingHooks{}
	c := New(store, sess, Config{Renderer: r, Hooks: h, Persister: p})
	c.Start()
	return harness{c: c, r: r, persist: p, hooks: h}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []model.Checkpoint
		next model.Checkpoint
		want []model.Checkpoint
	}{
		{
			name: "empty history appends",
			next: model.Checkpoint{Search: "ab", ID: "X"},
			want: []model.Checkpoint{{Search: "ab", ID: "X"}},
		},
		{
			name: "extension rewrites in place",
			in:   []model.Checkpoint{{Search: "ab", ID: "X"}},
			next: model.Checkpoint{Search: "abc", ID: "Y"},
			want: []model.Checkpoint{{Search: "abc", ID: "X"}},
		},
		{
			name: "new term appends",
			in:   []model.Checkpoint{{Search: "ab", ID: "X"}},
			next: model.Checkpoint{Search: "cd", ID: "Y"},
			want: []model.Checkpoint{{Search: "ab", ID: "X"}, {Search: "cd", ID: "Y"}},
		},
		{
			name: "duplicate ignoring case",
			in:   []model.Checkpoint{{Search: "Ab", ID: "X"}},
			next: model.Checkpoint{Search: "aB", ID: "Y"},
			want: []model.Checkpoint{{Search: "Ab", ID: "X"}},
		},
		{
			name: "shortening is ignored",
			in:   []model.Checkpoint{{Search: "abc", ID: "X"}},
			next: model.Checkpoint{Search: "ab", ID: "Y"},
			want: []model.Checkpoint{{Search: "abc", ID: "X"}},
		},
	}
	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := append([]model.Checkpoint(nil), tt.in...)
			got := Merge(in, tt.next)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Merge mismatch:\nwant: %#v\ngot:  %#v", tt.want, got)
			}
		})
	}
}

func TestController_PointerStaysInView(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 300, 8, 2, nil)
	c := h.c
	rng := rand.New(rand.NewSource(7))
	searches := []string{"", "cardio", "renal", "topic 3", "title 1", "zzz", "neuro", "title 29"}

	for step := 0; step < 2000; step++ {
		switch rng.Intn(9) {
		case 0:
			c.SetSearch(searches[rng.Intn(len(searches))])
		case 1:
			c.Move(1)
		case 2:
			c.Move(-1)
		case 3:
			c.SetCurrent(fmt.Sprintf("q%05d", rng.Intn(320)))
		case 4:
			c.ToggleSort()
		case 5:
			c.ToggleFlag(fmt.Sprintf("q%05d", rng.Intn(300)))
			c.SetFlagMode(rng.Intn(2) == 0)
		case 6:
			c.NavigateBack()
		case 7:
			c.ToggleHidden(c.Session().Current)
			c.SetShowHidden(rng.Intn(2) == 0)
		case 8:
			h.r.ScrollBy(rng.Intn(40) - 20)
		}

		v := c.View()
		if v.Len() == 0 {
			if c.Session().Current != "" {
				t.Fatalf("step %d: empty view but pointer %q", step, c.Session().Current)
			}
			continue
		}
		if !v.Contains(c.Session().Current) {
			t.Fatalf("step %d: pointer %q not in view of %d", step, c.Session().Current, v.Len())
		}
	}
}

func TestController_MoveWrapsAround(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 57, 10, 3, nil)
	c := h.c
	c.SetSearch("cardio")
	n := c.View().Len()
	if n == 0 {
		t.Fatalf("expected matches for cardio")
	}
	start := c.Session().Current
	for i := 0; i < n; i++ {
		c.Move(1)
	}
	if got := c.Session().Current; got != start {
		t.Fatalf("expected to return to %s after %d moves; got %s", start, n, got)
	}

	first := c.View().First()
	c.JumpTo(first)
	c.Move(-1)
	if got, want := c.Session().Current, c.View().At(n-1).ID; got != want {
		t.Fatalf("expected wrap to last item %s; got %s", want, got)
	}
}

func TestController_NavigateBackRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 120, 10, 3, nil)
	c := h.c
	c.SetSearch("renal")
	c.Move(1)
	c.Move(1)
	prior := model.Checkpoint{Search: c.Session().Predicate.Search, ID: c.Session().Current}
	before := len(c.Session().History)

	c.SetSearch("neuro")
	if got := len(c.Session().History); got != before+1 {
		t.Fatalf("expected new checkpoint; history len %d -> %d", before, got)
	}

	c.NavigateBack()
	got := model.Checkpoint{Search: c.Session().Predicate.Search, ID: c.Session().Current}
	if got != prior {
		t.Fatalf("expected state %+v after back; got %+v", prior, got)
	}
	if l := len(c.Session().History); l != before {
		t.Fatalf("expected history length %d after back; got %d", before, l)
	}
	if !reflect.DeepEqual(h.persist.lastHist, c.Session().History) {
		t.Fatalf("expected persisted history to match session")
	}
}

func TestController_NavigateBackEmptyHistoryClearsSearch(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 40, 10, 3, nil)
	c := h.c
	c.SetSearch("pulm")
	c.Session().History = nil
	cur := c.Session().Current

	c.NavigateBack()
	if s := c.Session().Predicate.Search; s != "" {
		t.Fatalf("expected search cleared; got %q", s)
	}
	if c.Session().Current != cur {
		t.Fatalf("expected pointer unchanged; got %s want %s", c.Session().Current, cur)
	}
	if len(c.Session().History) != 0 {
		t.Fatalf("expected empty history; got %#v", c.Session().History)
	}
}

func TestController_ExtendingSearchKeepsOneCheckpoint(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 40, 10, 3, nil)
	c := h.c
	for _, s := range []string{"t", "ti", "tit", "titl", "title"} {
		c.SetSearch(s)
	}
	hist := c.Session().History
	if len(hist) != 1 || hist[0].Search != "title" {
		t.Fatalf("expected a single extended checkpoint; got %#v", hist)
	}
}

func TestReviews_BatchPersistence(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		views int
		want  int
	}{{1, 0}, {2, 0}, {3, 1}, {5, 1}, {6, 2}} {
		writes := 0
		r := NewReviews(nil, 3, func(map[string]int) error {
			writes++
			return nil
		})
		for i := 0; i < tt.views; i++ {
			if _, err := r.Record(fmt.Sprintf("q%d", i)); err != nil {
				t.Fatalf("Record: %v", err)
			}
		}
		if writes != tt.want {
			t.Fatalf("%d views: expected %d writes; got %d", tt.views, tt.want, writes)
		}
	}
}

func TestReviews_OncePerSession(t *testing.T) {
	t.Parallel()

	r := NewReviews(map[string]int{"a": 4}, 3, nil)
	changed, _ := r.Record("a")
	again, _ := r.Record("a")
	if !changed || again {
		t.Fatalf("expected first record to count and second to be ignored")
	}
	if r.Count("a") != 5 {
		t.Fatalf("expected count 5; got %d", r.Count("a"))
	}
}

func TestController_ReviewWritesAreBatched(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 50, 10, 3, nil)
	// Start adopted the first item: one increment.
	h.c.Move(1)
	if h.persist.progress != 0 {
		t.Fatalf("expected no progress write after 2 views; got %d", h.persist.progress)
	}
	h.c.Move(1)
	if h.persist.progress != 1 {
		t.Fatalf("expected one progress write after 3 views; got %d", h.persist.progress)
	}
	h.c.Move(-1)
	if h.persist.progress != 1 {
		t.Fatalf("revisiting an item must not count again; got %d writes", h.persist.progress)
	}
}

func TestController_FallbackToCentreWhenNotRendered(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1000, 10, 2, nil)
	h.r.ScrollBy(100)
	centre, ok := h.r.CenterID()
	if !ok {
		t.Fatalf("expected a rendered window")
	}
	if !h.c.SetCurrent("q00900") {
		t.Fatalf("expected an item to be adopted")
	}
	if got := h.c.Session().Current; got != centre {
		t.Fatalf("expected fallback to centre item %s; got %s", centre, got)
	}
}

func TestController_ScrollToFarItemMakesItCurrent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 10000, 20, 3, nil)
	h.r.ScrollTo("q09999", false)
	if !h.c.SetCurrent("q09999") {
		t.Fatalf("expected adoption")
	}
	if got := h.c.Session().Current; got != "q09999" {
		t.Fatalf("expected q09999 current; got %s", got)
	}
	if h.r.Materialized() > 20+2*3 {
		t.Fatalf("too many materialized views: %d", h.r.Materialized())
	}
	if idx, total := h.c.Position(); idx != 9999 || total != 10000 {
		t.Fatalf("unexpected position %d/%d", idx, total)
	}
	if h.hooks.index != 9999 || h.hooks.total != 10000 {
		t.Fatalf("unexpected count hook %d/%d", h.hooks.index, h.hooks.total)
	}
}

func TestController_SortToggleRestoresOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 80, 10, 3, nil)
	c := h.c
	c.SetSearch("title")
	c.Move(1)
	cur := c.Session().Current
	orig := c.View().IDs()

	c.ToggleSort()
	if reflect.DeepEqual(orig, c.View().IDs()) {
		t.Fatalf("expected sorted order to differ from insertion order")
	}
	if c.Session().Current != cur {
		t.Fatalf("sorting must keep the current item")
	}
	c.ToggleSort()
	if !reflect.DeepEqual(orig, c.View().IDs()) {
		t.Fatalf("sort on/off must restore canonical order")
	}
}

func TestController_EmptyViewClearsPointer(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 30, 10, 3, nil)
	h.c.SetSearch("nothing matches this")
	if h.c.Session().Current != "" {
		t.Fatalf("expected empty pointer; got %q", h.c.Session().Current)
	}
	if h.hooks.index != -1 || h.hooks.total != 0 {
		t.Fatalf("expected count hook -1/0; got %d/%d", h.hooks.index, h.hooks.total)
	}
	h.c.Move(1)
	if h.c.Session().Current != "" {
		t.Fatalf("move on empty view must be a no-op")
	}
}

func TestController_CompletedModeNeedsRemote(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 30, 10, 3, nil)
	if h.c.SetCompletedMode(true) {
		t.Fatalf("completed mode must stay off without remote progress")
	}
	h.c.SetCompleted(model.NewIDSet("q00003", "q00007"), true)
	if !h.c.SetCompletedMode(true) {
		t.Fatalf("expected completed mode on with remote progress")
	}
	if got := h.c.View().IDs(); !reflect.DeepEqual(got, []string{"q00003", "q00007"}) {
		t.Fatalf("unexpected completed view: %v", got)
	}
	h.c.SetCompleted(nil, false)
	if h.c.Session().Predicate.CompletedOnly {
		t.Fatalf("losing remote progress must turn completed mode off")
	}
}

func TestController_FlagModeRefreshesOnUnflag(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 30, 10, 3, nil)
	c := h.c
	c.ToggleFlag("q00002")
	c.ToggleFlag("q00005")
	c.SetFlagMode(true)
	if got := c.View().IDs(); !reflect.DeepEqual(got, []string{"q00002", "q00005"}) {
		t.Fatalf("unexpected flagged view: %v", got)
	}
	c.ToggleFlag(c.Session().Current)
	if c.View().Len() != 1 || !c.View().Contains(c.Session().Current) {
		t.Fatalf("expected pointer to move to the remaining flagged item")
	}
	if !reflect.DeepEqual(h.persist.flagged, []string{"q00005"}) {
		t.Fatalf("unexpected persisted flags: %v", h.persist.flagged)
	}
}

func TestController_RestoresSessionOnStart(t *testing.T) {
	t.Parallel()

	sess := &Session{Current: "q00700", Predicate: model.Predicate{Search: "title 7"}}
	h := newHarness(t, 1000, 10, 3, sess)
	if got := h.c.Session().Current; got != "q00700" {
		t.Fatalf("expected restored far item to become current; got %s", got)
	}
	if hist := h.c.Session().History; len(hist) != 1 || hist[0].Search != "title 7" {
		t.Fatalf("expected start to record the restored search; got %#v", hist)
	}
}

func TestController_RequestExhibit(t *testing.T) {
	t.Parallel()

	store := itemstore.New()
	store.Load([]model.Item{{ID: "a", Exhibits: []model.Exhibit{"<p>one</p>", "<p>two</p>"}}})
	hooks := &recordingHooks{exhibit: -1}
	c := New(store, nil, Config{Hooks: hooks})
	c.Start()
	if !c.RequestExhibit(1) || hooks.exhibit != 1 {
		t.Fatalf("expected exhibit 1 requested")
	}
	if c.RequestExhibit(2) {
		t.Fatalf("out of range exhibit must be rejected")
	}
}

func TestNextExhibit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		count, shown int
		open         bool
		want         int
		wantOK       bool
	}{
		{count: 0, open: true, want: -1, wantOK: false},
		{count: 3, open: false, want: 0, wantOK: true},
		{count: 3, open: true, shown: 0, want: 1, wantOK: true},
		{count: 3, open: true, shown: 2, want: 0, wantOK: true},
		{count: 3, open: true, shown: -1, want: 0, wantOK: true},
		{count: 1, open: true, shown: 0, want: 0, wantOK: true},
	}
	for _, tt := range cases {
		got, ok := NextExhibit(tt.count, tt.open, tt.shown)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("NextExhibit(%d,%v,%d) = %d,%v; want %d,%v", tt.count, tt.open, tt.shown, got, ok, tt.want, tt.wantOK)
		}
	}
}
