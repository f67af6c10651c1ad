package engine

import (
	"image"
	"time"

	"github.com/panelmon/panelmon/canvas"
	"github.com/panelmon/panelmon/log2"
	"github.com/panelmon/panelmon/stats"
	"github.com/panelmon/panelmon/theme"
)

// sample is one line-graph history point. Unavailable reads leave gaps in
// the polyline instead of spiking to zero.
type sample struct {
	num   float64
	avail bool
}

// history is the graph ring buffer: fixed size, FIFO eviction.
type history struct {
	buf   []sample
	start int
	n     int
}

func newHistory(size int) *history { return &history{buf: make([]sample, size)} }

func (h *history) Push(s sample) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

func (h *history) Len() int { return h.n }

// At returns the i-th sample, oldest first.
func (h *history) At(i int) sample { return h.buf[(h.start+i)%len(h.buf)] }

type widgetState struct {
	valid   bool
	value   stats.Value
	updated time.Time
	hist    *history
}

// Compositor renders due widgets into the canvas and reports the changed
// regions. Canvas is owned exclusively by the engine loop running it.
type Compositor struct {
	th     *theme.Theme
	cv     *canvas.Canvas
	log    *log2.Log
	states []widgetState
}

func NewCompositor(th *theme.Theme, cv *canvas.Canvas, log *log2.Log) *Compositor {
	c := &Compositor{
		th:     th,
		cv:     cv,
		log:    log,
		states: make([]widgetState, len(th.Widgets)),
	}
	for i := range th.Widgets {
		if th.Widgets[i].Kind == theme.KindLineGraph {
			c.states[i].hist = newHistory(th.Widgets[i].History)
		}
	}
	return c
}

// SetCanvas swaps the render target after an orientation change. Rendered
// state is invalidated so every widget redraws; graph history is kept.
func (c *Compositor) SetCanvas(cv *canvas.Canvas) {
	c.cv = cv
	for i := range c.states {
		c.states[i].valid = false
	}
}

// RenderAll paints the theme background and every widget regardless of
// change state. Used for the first frame and after reconnect/orientation.
func (c *Compositor) RenderAll(snap map[string]stats.Entry) []image.Rectangle {
	bounds := c.cv.Bounds()
	if c.th.Display.BgImage != nil {
		c.cv.Blit(bounds, c.th.Display.BgImage, bounds.Min)
	} else {
		c.cv.Fill(bounds, c.th.Display.Background)
	}
	for i := range c.states {
		c.states[i].valid = false
	}
	due := make([]int, len(c.th.Widgets))
	for i := range due {
		due[i] = i
	}
	c.RenderDue(due, snap)
	c.cv.MarkDirty(bounds)
	return []image.Rectangle{bounds}
}

// RenderDue redraws the due widgets whose bound value changed since their
// last render, in declaration order. Returns this tick's dirty regions;
// the same regions are accumulated on the canvas for the transmitter.
func (c *Compositor) RenderDue(due []int, snap map[string]stats.Entry) []image.Rectangle {
	var dirty []image.Rectangle
	for _, i := range due {
		w := &c.th.Widgets[i]
		st := &c.states[i]
		entry := snap[w.Stat] // missing key renders as Unavailable
		if st.valid && st.value == entry.Value && st.updated.Equal(entry.Updated) {
			continue
		}
		st.valid = true
		st.value = entry.Value
		st.updated = entry.Updated
		c.renderWidget(w, st)
		c.cv.MarkDirty(w.Rect)
		dirty = append(dirty, w.Rect)
	}
	return dirty
}

func (c *Compositor) renderWidget(w *theme.Widget, st *widgetState) {
	// background first; widgets may overlap, declaration order wins
	if w.BgImage != nil {
		c.cv.Blit(w.Rect, w.BgImage, w.Rect.Min)
	} else {
		c.cv.Fill(w.Rect, w.Bg)
	}

	v := st.value
	switch w.Kind {
	case theme.KindStaticImage:
		c.cv.Blit(w.Rect, w.Image, w.Image.Bounds().Min)

	case theme.KindText:
		drawText(c.cv, w.Rect, v.Display(w.Fallback), w.Fg)

	case theme.KindLinearBar:
		frac := 0.0
		if v.Available() {
			frac = clamp01((v.Num - w.Min) / (w.Max - w.Min))
		}
		drawBar(c.cv, w, frac)

	case theme.KindRadialGauge:
		frac := 0.0
		if v.Available() {
			frac = clamp01((v.Num - w.Min) / (w.Max - w.Min))
		}
		drawGauge(c.cv, w, frac)

	case theme.KindLineGraph:
		st.hist.Push(sample{num: v.Num, avail: v.Available()})
		c.renderGraph(w, st.hist)
	}
}

func (c *Compositor) renderGraph(w *theme.Widget, h *history) {
	lo, hi := w.Min, w.Max
	if w.Autoscale {
		lo, hi = graphRange(h)
	}
	if hi <= lo {
		hi = lo + 1
	}

	r := w.Rect
	n := h.Len()
	if n < 2 {
		return
	}
	// spread history slots across the full width, oldest at the left edge
	var prev image.Point
	havePrev := false
	for i := 0; i < n; i++ {
		s := h.At(i)
		if !s.avail {
			havePrev = false
			continue
		}
		x := r.Min.X
		if w.History > 1 {
			x += i * (r.Dx() - 1) / (w.History - 1)
		}
		frac := clamp01((s.num - lo) / (hi - lo))
		y := r.Max.Y - 1 - int(frac*float64(r.Dy()-1))
		pt := image.Pt(x, y)
		if havePrev {
			drawLine(c.cv, r, prev, pt, w.Fg)
		}
		prev, havePrev = pt, true
	}
	if w.Outline {
		drawOutline(c.cv, r, w.Fg)
	}
}

// graphRange returns min/max over available samples for autoscale.
func graphRange(h *history) (lo, hi float64) {
	first := true
	for i := 0; i < h.Len(); i++ {
		s := h.At(i)
		if !s.avail {
			continue
		}
		if first {
			lo, hi = s.num, s.num
			first = false
			continue
		}
		if s.num < lo {
			lo = s.num
		}
		if s.num > hi {
			hi = s.num
		}
	}
	return lo, hi
}
