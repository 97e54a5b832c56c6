package vlist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eoreview/internal/model"
)

func makeItems(n int) []model.Item {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{ID: fmt.Sprintf("q%05d", i), Title: fmt.Sprintf("item %d", i)}
	}
	return items
}

func label(it model.Item, highlighted bool) string {
	if highlighted {
		return "> " + it.Title
	}
	return it.Title
}

func TestRenderer_MaterializesOnlyWindow(t *testing.T) {
	t.Parallel()

	const overscan = 3
	r := New(makeItems(10000), label, WithViewport(20), WithOverscan(overscan))
	limit := 20 + 2*overscan

	assert.LessOrEqual(t, r.Materialized(), limit)
	assert.Equal(t, 20+overscan, r.Materialized(), "top of list only has overscan below")

	for _, delta := range []int{1, 7, 500, -3, 9000, 1000} {
		r.ScrollBy(delta)
		require.LessOrEqual(t, r.Materialized(), limit, "after ScrollBy(%d)", delta)
		require.Len(t, r.Window(), r.Materialized())
	}

	require.True(t, r.ScrollTo("q09999", false))
	assert.LessOrEqual(t, r.Materialized(), limit)
	assert.True(t, r.IsMaterialized("q09999"))
	assert.Equal(t, 10000-20, r.Offset())
}

func TestRenderer_WindowIsOrderedAndContiguous(t *testing.T) {
	t.Parallel()

	r := New(makeItems(100), label, WithViewport(10), WithOverscan(2))
	r.ScrollBy(40)

	w := r.Window()
	require.Len(t, w, 14)
	for i, h := range w {
		assert.Equal(t, 38+i, h.Index)
		assert.Equal(t, fmt.Sprintf("q%05d", 38+i), h.ID)
	}

	vis := r.Visible()
	require.Len(t, vis, 10)
	assert.Equal(t, "q00040", vis[0].ID)
	assert.Equal(t, "q00049", vis[9].ID)
}

func TestRenderer_ScrollReusesHandles(t *testing.T) {
	t.Parallel()

	r := New(makeItems(1000), label, WithViewport(10), WithOverscan(2))
	before := r.Created()
	r.ScrollBy(1)
	assert.Equal(t, before+1, r.Created(), "one item entered the window")

	h, ok := r.HandleFor("q00005")
	require.True(t, ok)
	r.ScrollBy(1)
	again, ok := r.HandleFor("q00005")
	require.True(t, ok)
	assert.Same(t, h, again, "items staying in the window keep their handle")
}

func TestRenderer_CenterID(t *testing.T) {
	t.Parallel()

	r := New(makeItems(100), label, WithViewport(10), WithOverscan(2))
	r.ScrollBy(50)
	id, ok := r.CenterID()
	require.True(t, ok)
	// Window spans 48..61, its middle element is index 55.
	assert.Equal(t, "q00055", id)

	empty := New(nil, label, WithViewport(10))
	_, ok = empty.CenterID()
	assert.False(t, ok)
}

func TestRenderer_SetItemsKeepsHighlightedRow(t *testing.T) {
	t.Parallel()

	items := makeItems(200)
	r := New(items, label, WithViewport(10), WithOverscan(2))
	r.ScrollTo("q00100", false)
	r.Highlight("q00100")
	row := 100 - r.Offset()

	// Keep only even items; q00100 moves to index 50.
	var evens []model.Item
	for i := 0; i < len(items); i += 2 {
		evens = append(evens, items[i])
	}
	r.SetItems(evens)

	i, ok := r.Index("q00100")
	require.True(t, ok)
	assert.Equal(t, 50, i)
	assert.Equal(t, row, i-r.Offset())
	assert.True(t, r.IsMaterialized("q00100"))
	assert.False(t, r.IsMaterialized("q00101"), "dropped items release their handles")
}

func TestRenderer_SetItemsClampsOffset(t *testing.T) {
	t.Parallel()

	r := New(makeItems(200), label, WithViewport(10), WithOverscan(2))
	r.ScrollBy(150)
	r.SetItems(makeItems(5)[:0])
	assert.Equal(t, 0, r.Offset())
	assert.Equal(t, 0, r.Materialized())

	r.SetItems(makeItems(5))
	assert.Equal(t, 0, r.Offset())
	assert.Equal(t, 5, r.Materialized())
}

func TestRenderer_Highlight(t *testing.T) {
	t.Parallel()

	r := New(makeItems(20), label, WithViewport(5), WithOverscan(1))
	r.Highlight("q00002")
	h, ok := r.HandleFor("q00002")
	require.True(t, ok)
	assert.Equal(t, "> item 2", h.View)

	r.Highlight("q00003")
	assert.Equal(t, "item 2", h.View)
	h3, _ := r.HandleFor("q00003")
	assert.Equal(t, "> item 3", h3.View)
}

func TestRenderer_SmoothScroll(t *testing.T) {
	t.Parallel()

	r := New(makeItems(100), label, WithViewport(10), WithOverscan(3))
	r.ScrollBy(20)

	// Neighbour within overscan animates.
	require.True(t, r.ScrollTo("q00031", true))
	assert.True(t, r.Animating())
	steps := 0
	for r.Step() {
		steps++
		require.Less(t, steps, 100)
	}
	assert.Equal(t, 26, r.Offset())
	assert.False(t, r.Animating())

	// Far targets jump straight away.
	require.True(t, r.ScrollTo("q00090", true))
	assert.False(t, r.Animating())
	assert.True(t, r.IsMaterialized("q00090"))

	assert.False(t, r.ScrollTo("missing", true))
}
