// Package vlist is a windowed list: it materializes views only for the items
// inside the viewport plus an overscan margin.
package vlist

import "eoreview/internal/model"

const (
	DefaultOverscan = 3
	// smoothDivisor controls how much of the remaining distance one animation
	// step covers.
	smoothDivisor = 3
)

// Handle is a materialized view for one item.
type Handle[V any] struct {
	ID    string
	Index int
	View  V
}

// RenderFunc builds the view for an item. It must return an equivalent view
// every time it is called with the same item.
type RenderFunc[V any] func(item model.Item, highlighted bool) V

type Option func(*options)

type options struct {
	viewport int
	overscan int
}

// WithViewport sets the number of item slots visible at once.
func WithViewport(n int) Option {
	return func(o *options) { o.viewport = n }
}

// WithOverscan sets the number of extra slots materialized above and below
// the viewport.
func WithOverscan(n int) Option {
	return func(o *options) { o.overscan = n }
}

// Renderer keeps the window of materialized handles in sync with the scroll
// offset and the backing sequence.
type Renderer[V any] struct {
	opts   options
	render RenderFunc[V]

	items []model.Item
	index map[string]int

	offset int
	target int

	highlighted string

	// window is ordered by Index. handles maps id to its entry in window.
	window  []*Handle[V]
	handles map[string]*Handle[V]
	free    []*Handle[V]

	created int
}

func New[V any](items []model.Item, render RenderFunc[V], opts ...Option) *Renderer[V] {
	o := options{viewport: 1, overscan: DefaultOverscan}
	for _, opt := range opts {
		opt(&o)
	}
	if o.viewport < 1 {
		o.viewport = 1
	}
	if o.overscan < 0 {
		o.overscan = 0
	}
	r := &Renderer[V]{
		opts:    o,
		render:  render,
		handles: map[string]*Handle[V]{},
	}
	r.setItems(items)
	r.offset = 0
	r.target = 0
	r.materialize()
	return r
}

func (r *Renderer[V]) setItems(items []model.Item) {
	r.items = items
	r.index = make(map[string]int, len(items))
	for i, it := range items {
		r.index[it.ID] = i
	}
}

// SetItems replaces the backing sequence. The scroll position follows the
// highlighted item if it survives, otherwise the first visible item, otherwise
// the old offset is clamped.
func (r *Renderer[V]) SetItems(items []model.Item) {
	anchorID, anchorRow := "", 0
	if i, ok := r.index[r.highlighted]; ok && r.isVisible(i) {
		anchorID, anchorRow = r.highlighted, i-r.offset
	} else if r.offset < len(r.items) {
		anchorID = r.items[r.offset].ID
	}

	// Views depend only on the item, so survivors keep theirs.
	r.setItems(items)
	for id, h := range r.handles {
		if ni, ok := r.index[id]; ok {
			h.Index = ni
			continue
		}
		r.release(h)
	}

	off := r.offset
	if ni, ok := r.index[anchorID]; ok && anchorID != "" {
		off = ni - anchorRow
	}
	r.offset = r.clamp(off)
	r.target = r.offset
	r.materialize()
}

// Resize changes the number of visible slots.
func (r *Renderer[V]) Resize(viewport int) {
	if viewport < 1 {
		viewport = 1
	}
	r.opts.viewport = viewport
	r.offset = r.clamp(r.offset)
	r.target = r.clamp(r.target)
	r.materialize()
}

func (r *Renderer[V]) Len() int      { return len(r.items) }
func (r *Renderer[V]) Offset() int   { return r.offset }
func (r *Renderer[V]) Viewport() int { return r.opts.viewport }
func (r *Renderer[V]) Overscan() int { return r.opts.overscan }

// Created reports how many views have been built so far.
func (r *Renderer[V]) Created() int { return r.created }

// Materialized returns the number of live handles.
func (r *Renderer[V]) Materialized() int { return len(r.handles) }

// HandleFor returns the view handle for id when it is materialized.
func (r *Renderer[V]) HandleFor(id string) (*Handle[V], bool) {
	h, ok := r.handles[id]
	return h, ok
}

func (r *Renderer[V]) IsMaterialized(id string) bool {
	_, ok := r.handles[id]
	return ok
}

// Visible returns the handles inside the viewport in order.
func (r *Renderer[V]) Visible() []*Handle[V] {
	out := make([]*Handle[V], 0, r.opts.viewport)
	for _, h := range r.window {
		if r.isVisible(h.Index) {
			out = append(out, h)
		}
	}
	return out
}

// Window returns every materialized handle in order, overscan included.
func (r *Renderer[V]) Window() []*Handle[V] {
	return r.window
}

// CenterID returns the item in the middle of the materialized window.
func (r *Renderer[V]) CenterID() (string, bool) {
	if len(r.window) == 0 {
		return "", false
	}
	return r.window[len(r.window)/2].ID, true
}

// Highlight marks id as highlighted and re-renders the affected handles.
func (r *Renderer[V]) Highlight(id string) {
	if id == r.highlighted {
		return
	}
	prev := r.highlighted
	r.highlighted = id
	for _, hid := range []string{prev, id} {
		if h, ok := r.handles[hid]; ok {
			h.View = r.render(r.items[h.Index], hid == r.highlighted)
		}
	}
}

func (r *Renderer[V]) Highlighted() string { return r.highlighted }

// Invalidate rebuilds the view for id if it is materialized, e.g. after its
// flag or review count changed.
func (r *Renderer[V]) Invalidate(id string) {
	if h, ok := r.handles[id]; ok {
		h.View = r.render(r.items[h.Index], id == r.highlighted)
	}
}

// InvalidateAll rebuilds every materialized view.
func (r *Renderer[V]) InvalidateAll() {
	for _, h := range r.window {
		h.View = r.render(r.items[h.Index], h.ID == r.highlighted)
	}
}

// ScrollTo positions id in the middle of the viewport. With smooth set the
// offset moves there over successive Step calls; otherwise it jumps at once.
// It reports whether id is part of the sequence.
func (r *Renderer[V]) ScrollTo(id string, smooth bool) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.target = r.clamp(i - r.opts.viewport/2)
	// Far jumps are immediate so the destination is materialized right away.
	if !smooth || !r.IsMaterialized(id) {
		r.offset = r.target
		r.materialize()
	}
	return true
}

// ScrollBy moves the viewport by delta slots without animation.
func (r *Renderer[V]) ScrollBy(delta int) {
	r.offset = r.clamp(r.offset + delta)
	r.target = r.offset
	r.materialize()
}

// Animating reports whether a smooth scroll is in progress.
func (r *Renderer[V]) Animating() bool { return r.offset != r.target }

// Step advances a smooth scroll by one frame and reports whether more frames
// are needed.
func (r *Renderer[V]) Step() bool {
	if !r.Animating() {
		return false
	}
	d := r.target - r.offset
	step := d / smoothDivisor
	if step == 0 {
		if d > 0 {
			step = 1
		} else {
			step = -1
		}
	}
	r.offset += step
	r.materialize()
	return r.Animating()
}

// Index returns the position of id in the backing sequence.
func (r *Renderer[V]) Index(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

func (r *Renderer[V]) isVisible(i int) bool {
	return i >= r.offset && i < r.offset+r.opts.viewport
}

func (r *Renderer[V]) clamp(off int) int {
	maxOff := len(r.items) - r.opts.viewport
	if off > maxOff {
		off = maxOff
	}
	if off < 0 {
		off = 0
	}
	return off
}

func (r *Renderer[V]) bounds() (int, int) {
	lo := r.offset - r.opts.overscan
	hi := r.offset + r.opts.viewport + r.opts.overscan
	if lo < 0 {
		lo = 0
	}
	if hi > len(r.items) {
		hi = len(r.items)
	}
	return lo, hi
}

// materialize reconciles the handle window with the current offset. Handles
// leaving the window go to the free list and are reused for items entering it.
func (r *Renderer[V]) materialize() {
	lo, hi := r.bounds()
	for _, h := range r.handles {
		if h.Index < lo || h.Index >= hi {
			r.release(h)
		}
	}
	window := r.window[:0]
	for i := lo; i < hi; i++ {
		it := r.items[i]
		h, ok := r.handles[it.ID]
		if !ok {
			h = r.acquire(i)
		}
		window = append(window, h)
	}
	r.window = window
}

func (r *Renderer[V]) acquire(i int) *Handle[V] {
	var h *Handle[V]
	if n := len(r.free); n > 0 {
		h = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		h = &Handle[V]{}
	}
	it := r.items[i]
	h.ID = it.ID
	h.Index = i
	h.View = r.render(it, it.ID == r.highlighted)
	r.handles[it.ID] = h
	r.created++
	return h
}

func (r *Renderer[V]) release(h *Handle[V]) {
	delete(r.handles, h.ID)
	var zero V
	h.View = zero
	h.ID = ""
	r.free = append(r.free, h)
}
