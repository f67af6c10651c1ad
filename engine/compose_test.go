package engine

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelmon/panelmon/canvas"
	"github.com/panelmon/panelmon/log2"
	"github.com/panelmon/panelmon/stats"
	"github.com/panelmon/panelmon/theme"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

func textWidget(name, stat string, r image.Rectangle) theme.Widget {
	return theme.Widget{
		Name:     name,
		Kind:     theme.KindText,
		Rect:     r,
		Stat:     stat,
		Interval: 100 * time.Millisecond,
		Fg:       white,
		Bg:       black,
		Fallback: "-",
	}
}

func TestHistoryFIFO(t *testing.T) {
	t.Parallel()
	h := newHistory(3)
	for i := 1; i <= 5; i++ {
		h.Push(sample{num: float64(i), avail: true})
		assert.LessOrEqual(t, h.Len(), 3)
	}
	// oldest evicted first
	require.Equal(t, 3, h.Len())
	assert.Equal(t, 3.0, h.At(0).num)
	assert.Equal(t, 4.0, h.At(1).num)
	assert.Equal(t, 5.0, h.At(2).num)
}

func TestCompositorDirtyOnlyChanged(t *testing.T) {
	t.Parallel()
	rectA := image.Rect(0, 0, 100, 20)
	rectB := image.Rect(0, 30, 100, 50)
	th := &theme.Theme{
		Display: theme.Display{Background: black},
		Widgets: []theme.Widget{
			textWidget("a", "stat_a", rectA),
			textWidget("b", "stat_b", rectB),
		},
	}
	cv := canvas.New(320, 480)
	comp := NewCompositor(th, cv, log2.NewTest(t, log2.LError))

	t1 := time.Unix(100, 0)
	snap := map[string]stats.Entry{
		"stat_a": {Value: stats.Num(1, ""), Updated: t1},
		"stat_b": {Value: stats.Num(2, ""), Updated: t1},
	}
	dirty := comp.RenderDue([]int{0, 1}, snap)
	assert.Equal(t, []image.Rectangle{rectA, rectB}, dirty)

	// unchanged values produce no dirty regions
	assert.Empty(t, comp.RenderDue([]int{0, 1}, snap))

	// only the changed widget's bounding box is reported
	snap2 := map[string]stats.Entry{
		"stat_a": {Value: stats.Num(7, ""), Updated: time.Unix(200, 0)},
		"stat_b": {Value: stats.Num(2, ""), Updated: t1},
	}
	dirty = comp.RenderDue([]int{0, 1}, snap2)
	assert.Equal(t, []image.Rectangle{rectA}, dirty)
}

func TestCompositorFallbackOnUnavailable(t *testing.T) {
	t.Parallel()
	r := image.Rect(0, 0, 100, 20)
	th := &theme.Theme{
		Display: theme.Display{Background: black},
		Widgets: []theme.Widget{textWidget("a", "gone", r)},
	}
	cv := canvas.New(320, 480)
	comp := NewCompositor(th, cv, log2.NewTest(t, log2.LError))

	// missing stat renders the fallback glyph, not an error
	dirty := comp.RenderDue([]int{0}, map[string]stats.Entry{})
	require.Equal(t, []image.Rectangle{r}, dirty)

	found := false
	img := cv.RGBA()
	for y := r.Min.Y; y < r.Max.Y && !found; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == white {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "fallback text not rendered")
}

func TestCompositorRenderAll(t *testing.T) {
	t.Parallel()
	th := &theme.Theme{
		Display: theme.Display{Background: color.RGBA{B: 0x40, A: 255}},
		Widgets: []theme.Widget{textWidget("a", "stat_a", image.Rect(0, 0, 50, 20))},
	}
	cv := canvas.New(64, 64)
	comp := NewCompositor(th, cv, log2.NewTest(t, log2.LError))

	dirty := comp.RenderAll(map[string]stats.Entry{})
	assert.Equal(t, []image.Rectangle{cv.Bounds()}, dirty)
	assert.Equal(t, color.RGBA{B: 0x40, A: 255}, cv.RGBA().RGBAAt(60, 60))
}

func TestGraphAutoscale(t *testing.T) {
	t.Parallel()
	h := newHistory(4)
	h.Push(sample{num: 10, avail: true})
	h.Push(sample{num: 30, avail: true})
	h.Push(sample{avail: false})
	h.Push(sample{num: 20, avail: true})
	lo, hi := graphRange(h)
	assert.Equal(t, 10.0, lo)
	assert.Equal(t, 30.0, hi)
}
