package engine

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/panelmon/panelmon/canvas"
	"github.com/panelmon/panelmon/theme"
)

// drawText renders s with the bitmap face, clipped to r.
func drawText(cv *canvas.Canvas, r image.Rectangle, s string, fg color.RGBA) {
	clip, ok := cv.RGBA().SubImage(r).(*image.RGBA)
	if !ok {
		return
	}
	d := font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(fg),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(r.Min.X, r.Min.Y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(s)
}

func setPixel(img *image.RGBA, clip image.Rectangle, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(clip) {
		img.SetRGBA(x, y, c)
	}
}

// drawLine draws a clipped segment with the integer midpoint algorithm.
func drawLine(cv *canvas.Canvas, clip image.Rectangle, p0, p1 image.Point, c color.RGBA) {
	img := cv.RGBA()
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	e := dx + dy
	x, y := p0.X, p0.Y
	for {
		setPixel(img, clip, x, y, c)
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// dim produces the unfilled-segment track color from the foreground.
func dim(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R >> 2, G: c.G >> 2, B: c.B >> 2, A: 0xff}
}

// stepFilled decides the fill state of one gauge segment: a segment is
// filled when its angular midpoint lies within the swept range.
func stepFilled(span, sep float64, steps, idx int, sweep float64) bool {
	stepSpan := (span - float64(steps-1)*sep) / float64(steps)
	pitch := stepSpan + sep
	mid := float64(idx)*pitch + stepSpan/2
	return mid <= sweep
}

// drawGauge scan-fills the annulus between radius-lineWidth and radius.
// Angle 0 is at 3 o'clock and grows in the widget's configured direction;
// screen y grows downward so atan2(dy,dx) is already clockwise.
func drawGauge(cv *canvas.Canvas, w *theme.Widget, frac float64) {
	span := w.AngleEnd - w.AngleStart
	sweep := frac * span
	inner := float64(w.Radius - w.LineWidth)
	outer := float64(w.Radius)
	img := cv.RGBA()
	clip := w.Rect.Intersect(cv.Bounds())
	track := dim(w.Fg)

	stepSpan := span
	pitch := span
	if w.Steps > 1 {
		stepSpan = (span - float64(w.Steps-1)*w.StepSep) / float64(w.Steps)
		pitch = stepSpan + w.StepSep
	}

	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			dx := float64(x - w.Center.X)
			dy := float64(y - w.Center.Y)
			d := math.Hypot(dx, dy)
			if d < inner || d > outer {
				continue
			}
			ang := math.Atan2(dy, dx) * 180 / math.Pi
			if !w.Clockwise {
				ang = -ang
			}
			rel := math.Mod(ang-w.AngleStart, 360)
			if rel < 0 {
				rel += 360
			}
			if rel > span {
				continue
			}
			c := track
			if w.Steps > 1 {
				idx := int(rel / pitch)
				if idx >= w.Steps {
					idx = w.Steps - 1
				}
				if rel-float64(idx)*pitch > stepSpan {
					continue // separator gap
				}
				if stepFilled(span, w.StepSep, w.Steps, idx, sweep) {
					c = w.Fg
				}
			} else if rel <= sweep {
				c = w.Fg
			}
			img.SetRGBA(x, y, c)
		}
	}
}

// drawBar fills the value fraction of a horizontal or vertical bar.
// Orientation follows the longer side; vertical bars fill bottom-up.
func drawBar(cv *canvas.Canvas, w *theme.Widget, frac float64) {
	r := w.Rect
	if r.Dx() >= r.Dy() {
		fill := int(math.Round(frac * float64(r.Dx())))
		cv.Fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+fill, r.Max.Y), w.Fg)
	} else {
		fill := int(math.Round(frac * float64(r.Dy())))
		cv.Fill(image.Rect(r.Min.X, r.Max.Y-fill, r.Max.X, r.Max.Y), w.Fg)
	}
	if w.Outline {
		drawOutline(cv, r, w.Fg)
	}
}

func drawOutline(cv *canvas.Canvas, r image.Rectangle, c color.RGBA) {
	cv.Fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	cv.Fill(image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	cv.Fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	cv.Fill(image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}
