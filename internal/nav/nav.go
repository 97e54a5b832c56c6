// Package nav owns the current-item pointer: it keeps it valid against the
// filtered view, moves it, and records the back-navigation history.
package nav

import (
	"log/slog"
	"strings"

	"eoreview/internal/filter"
	"eoreview/internal/itemstore"
	"eoreview/internal/model"
)

// Session is the mutable state of one review session.
type Session struct {
	Current   string
	Predicate model.Predicate
	Sorted    bool
	History   []model.Checkpoint

	Flagged   model.IDSet
	Hidden    model.IDSet
	Completed model.IDSet

	// RemoteAvailable gates completed mode.
	RemoteAvailable bool
}

func (s *Session) sets() filter.Sets {
	return filter.Sets{Flagged: s.Flagged, Completed: s.Completed, Hidden: s.Hidden}
}

// Renderer is the part of the list renderer the controller drives.
type Renderer interface {
	SetItems(items []model.Item)
	IsMaterialized(id string) bool
	CenterID() (string, bool)
	ScrollTo(id string, smooth bool) bool
	Highlight(id string)
}

// Hooks are notified of changes the presentation layer reacts to.
type Hooks interface {
	OnItemBecameCurrent(item model.Item)
	// OnResultCountChanged receives the zero-based position of the current
	// item, or -1 when there is none.
	OnResultCountChanged(index, total int)
	OnExhibitRequested(item model.Item, exhibit int)
}

// Persister stores session state. Errors are logged and otherwise ignored.
type Persister interface {
	SaveCurrent(id, search string, sorted bool) error
	SaveHistory(history []model.Checkpoint) error
	SaveProgress(progress map[string]int) error
	SaveFlagged(ids []string) error
	SaveHidden(ids []string) error
}

type NopHooks struct{}

func (NopHooks) OnItemBecameCurrent(model.Item)     {}
func (NopHooks) OnResultCountChanged(int, int)      {}
func (NopHooks) OnExhibitRequested(model.Item, int) {}

type nopRenderer struct{}

func (nopRenderer) SetItems([]model.Item)      {}
func (nopRenderer) IsMaterialized(string) bool { return true }
func (nopRenderer) CenterID() (string, bool)   { return "", false }
func (nopRenderer) ScrollTo(string, bool) bool { return true }
func (nopRenderer) Highlight(string)           {}

// Config wires a Controller to its collaborators. Nil fields get no-op
// implementations.
type Config struct {
	Renderer  Renderer
	Hooks     Hooks
	Persister Persister
	Logger    *slog.Logger
	Progress  map[string]int
	// ReviewBatch is the number of increments per progress write.
	ReviewBatch int
	Smooth      bool
}

type Controller struct {
	sess    *Session
	store   *itemstore.Store
	engine  filter.Engine
	r       Renderer
	hooks   Hooks
	persist Persister
	reviews *Reviews
	log     *slog.Logger
	smooth  bool

	view filter.View
}

func New(store *itemstore.Store, sess *Session, cfg Config) *Controller {
	if sess == nil {
		sess = &Session{}
	}
	if sess.Flagged == nil {
		sess.Flagged = model.IDSet{}
	}
	if sess.Hidden == nil {
		sess.Hidden = model.IDSet{}
	}
	if sess.Completed == nil {
		sess.Completed = model.IDSet{}
	}
	if !sess.RemoteAvailable {
		sess.Predicate.CompletedOnly = false
	}
	c := &Controller{
		sess:    sess,
		store:   store,
		r:       cfg.Renderer,
		hooks:   cfg.Hooks,
		persist: cfg.Persister,
		log:     cfg.Logger,
		smooth:  cfg.Smooth,
	}
	if c.r == nil {
		c.r = nopRenderer{}
	}
	if c.hooks == nil {
		c.hooks = NopHooks{}
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	var save func(map[string]int) error
	if c.persist != nil {
		save = c.persist.SaveProgress
	}
	c.reviews = NewReviews(cfg.Progress, cfg.ReviewBatch, save)
	return c
}

func (c *Controller) Session() *Session     { return c.sess }
func (c *Controller) View() filter.View     { return c.view }
func (c *Controller) Reviews() *Reviews     { return c.reviews }
func (c *Controller) SetSmooth(smooth bool) { c.smooth = smooth }

// Current returns the current item.
func (c *Controller) Current() (model.Item, bool) {
	i, ok := c.view.IndexOf(c.sess.Current)
	if !ok {
		return model.Item{}, false
	}
	return c.view.At(i), true
}

// Position returns the zero-based index of the current item and the view
// size. The index is -1 when nothing is current.
func (c *Controller) Position() (int, int) {
	i, ok := c.view.IndexOf(c.sess.Current)
	if !ok {
		return -1, c.view.Len()
	}
	return i, c.view.Len()
}

// Start evaluates the view for the restored session and scrolls to the
// restored item.
func (c *Controller) Start() {
	c.refresh(true)
	c.recordSearch(c.sess.Predicate.Search)
}

// Refresh re-evaluates the view and re-resolves the pointer against it.
func (c *Controller) Refresh() {
	c.refresh(false)
}

func (c *Controller) refresh(jump bool) {
	c.view = c.engine.View(c.store.Snapshot(), c.sess.Predicate, c.sess.Sorted, c.sess.sets())
	c.r.SetItems(c.view.Items())
	if jump && c.view.Contains(c.sess.Current) {
		c.r.ScrollTo(c.sess.Current, false)
	}
	c.SetCurrent(c.sess.Current)
}

// SetCurrent makes id the current item. If id is not in the view the first
// item is used instead. If the chosen item is not materialized by the
// renderer, the item at the centre of the rendered window is used, at most
// once. It reports whether an item was adopted.
func (c *Controller) SetCurrent(id string) bool {
	triedCentre := false
	for {
		if !c.view.Contains(id) {
			if c.view.Len() == 0 {
				c.sess.Current = ""
				c.hooks.OnResultCountChanged(-1, 0)
				return false
			}
			id = c.view.First()
			c.r.ScrollTo(id, false)
		}
		if c.r.IsMaterialized(id) {
			break
		}
		centre, ok := c.r.CenterID()
		if triedCentre || !ok || !c.view.Contains(centre) {
			c.r.ScrollTo(id, false)
			break
		}
		id = centre
		triedCentre = true
	}
	c.adopt(id)
	return true
}

func (c *Controller) adopt(id string) {
	c.sess.Current = id
	idx, _ := c.view.IndexOf(id)
	c.hooks.OnResultCountChanged(idx, c.view.Len())
	c.r.Highlight(id)
	c.r.ScrollTo(id, c.smooth)

	if n := len(c.sess.History); n > 0 && strings.EqualFold(c.sess.History[n-1].Search, c.sess.Predicate.Search) && c.sess.History[n-1].ID != id {
		c.sess.History[n-1].ID = id
		c.saveHistory()
	}
	if c.persist != nil {
		if err := c.persist.SaveCurrent(id, c.sess.Predicate.Search, c.sess.Sorted); err != nil {
			c.log.Warn("save current item", "id", id, "err", err)
		}
	}
	if _, err := c.reviews.Record(id); err != nil {
		c.log.Warn("save review progress", "err", err)
	}
	c.hooks.OnItemBecameCurrent(c.view.At(idx))
}

// JumpTo scrolls id into the rendered window and makes it current.
func (c *Controller) JumpTo(id string) bool {
	c.r.ScrollTo(id, false)
	return c.SetCurrent(id)
}

// Move advances the pointer by one item in direction dir (+1 or -1),
// wrapping at either end.
func (c *Controller) Move(dir int) {
	n := c.view.Len()
	if n == 0 {
		return
	}
	i, ok := c.view.IndexOf(c.sess.Current)
	if !ok {
		c.JumpTo(c.view.First())
		return
	}
	if dir >= 0 {
		dir = 1
	} else {
		dir = -1
	}
	next := c.view.At((i + dir + n) % n).ID
	c.r.ScrollTo(next, c.smooth)
	c.SetCurrent(next)
}

// SetSearch applies a new search string and records a history checkpoint.
func (c *Controller) SetSearch(raw string) {
	search := model.NormalizeSearch(raw)
	c.sess.Predicate.Search = search
	c.refresh(false)
	c.recordSearch(search)
}

func (c *Controller) recordSearch(search string) {
	before := append([]model.Checkpoint(nil), c.sess.History...)
	c.sess.History = Merge(c.sess.History, model.Checkpoint{Search: search, ID: c.sess.Current})
	if n := len(c.sess.History); n > 0 && c.sess.History[n-1].Search == search && c.sess.Current != "" {
		c.sess.History[n-1].ID = c.sess.Current
	}
	if !sameHistory(before, c.sess.History) {
		c.saveHistory()
	}
}

// NavigateBack restores the previous checkpoint. With no history it clears
// the search and leaves the pointer alone.
func (c *Controller) NavigateBack() {
	h := c.sess.History
	if len(h) == 0 {
		c.sess.Predicate.Search = ""
		c.refresh(false)
		c.sess.History = nil
		c.saveHistory()
		return
	}

	var target model.Checkpoint
	if len(h) >= 2 && strings.EqualFold(h[len(h)-1].Search, c.sess.Predicate.Search) {
		// The newest checkpoint is the state on screen; step over it and
		// keep the one being restored as the new tip.
		h = h[:len(h)-1]
		target = h[len(h)-1]
	} else {
		target = h[len(h)-1]
		h = h[:len(h)-1]
	}
	c.sess.History = h
	c.sess.Predicate.Search = model.NormalizeSearch(target.Search)
	c.sess.Current = target.ID
	c.refresh(true)
	c.saveHistory()
}

// ToggleSort flips the sort mode, keeping the search and the current item.
func (c *Controller) ToggleSort() {
	c.sess.Sorted = !c.sess.Sorted
	c.refresh(true)
}

func (c *Controller) SetFlagMode(on bool) {
	c.sess.Predicate.FlagOnly = on
	c.refresh(false)
}

// SetCompletedMode enables the completed-only filter when remote progress is
// available. It returns the mode actually in effect.
func (c *Controller) SetCompletedMode(on bool) bool {
	c.sess.Predicate.CompletedOnly = on && c.sess.RemoteAvailable
	c.refresh(false)
	return c.sess.Predicate.CompletedOnly
}

func (c *Controller) SetShowHidden(show bool) {
	c.sess.Predicate.HideHidden = !show
	c.refresh(false)
}

// SetCompleted replaces the completed-id set reported by remote sync.
func (c *Controller) SetCompleted(ids model.IDSet, available bool) {
	if ids == nil {
		ids = model.IDSet{}
	}
	c.sess.Completed = ids
	c.sess.RemoteAvailable = available
	if !available {
		c.sess.Predicate.CompletedOnly = false
	}
	c.refresh(false)
}

// ToggleFlag flips the flag on id and reports whether it is now flagged.
func (c *Controller) ToggleFlag(id string) bool {
	if id == "" {
		return false
	}
	on := c.sess.Flagged.Toggle(id)
	if c.persist != nil {
		if err := c.persist.SaveFlagged(c.sess.Flagged.Sorted()); err != nil {
			c.log.Warn("save flagged", "err", err)
		}
	}
	if c.sess.Predicate.FlagOnly {
		c.refresh(false)
	}
	return on
}

// ToggleHidden flips the hidden mark on id and reports whether it is now hidden.
func (c *Controller) ToggleHidden(id string) bool {
	if id == "" {
		return false
	}
	on := c.sess.Hidden.Toggle(id)
	if c.persist != nil {
		if err := c.persist.SaveHidden(c.sess.Hidden.Sorted()); err != nil {
			c.log.Warn("save hidden", "err", err)
		}
	}
	if c.sess.Predicate.HideHidden {
		c.refresh(false)
	}
	return on
}

// Reload replaces the collection, clears the search and re-resolves the
// pointer, preferring the item that was current.
func (c *Controller) Reload(items []model.Item) {
	c.store.Load(items)
	c.sess.Predicate.Search = ""
	c.refresh(true)
}

// RequestExhibit asks the presentation layer to show exhibit i of the current
// item. It reports whether the index was valid.
func (c *Controller) RequestExhibit(i int) bool {
	it, ok := c.Current()
	if !ok || i < 0 || i >= len(it.Exhibits) {
		return false
	}
	c.hooks.OnExhibitRequested(it, i)
	return true
}

// Flush persists outstanding review increments.
func (c *Controller) Flush() error {
	return c.reviews.Flush()
}

func (c *Controller) saveHistory() {
	if c.persist == nil {
		return
	}
	if err := c.persist.SaveHistory(c.sess.History); err != nil {
		c.log.Warn("save navigation history", "err", err)
	}
}

func sameHistory(a, b []model.Checkpoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NextExhibit decides what the exhibit key does. count is the number of
// exhibits on the current item, open whether the viewer is showing one and
// shown its index. It returns the exhibit to show, or ok=false to close.
func NextExhibit(count int, open bool, shown int) (next int, ok bool) {
	switch {
	case count == 0:
		return -1, false
	case !open:
		return 0, true
	case shown < 0 || shown >= count:
		return 0, true
	case count > 1:
		return (shown + 1) % count, true
	default:
		return shown, true
	}
}
