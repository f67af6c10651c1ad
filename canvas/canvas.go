// Package canvas holds the in-memory display surface: an RGBA bitmap with
// region-level dirty tracking, plus the RGB565 wire encoding shared by all
// display revisions.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
)

type Canvas struct {
	img   *image.RGBA
	dirty []image.Rectangle
}

func New(w, h int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// RGBA exposes the underlying bitmap as a draw target. The caller is
// responsible for MarkDirty on whatever it touches.
func (c *Canvas) RGBA() *image.RGBA { return c.img }

func (c *Canvas) MarkDirty(r image.Rectangle) {
	r = r.Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	c.dirty = append(c.dirty, r)
}

// Dirty returns accumulated regions in production order.
func (c *Canvas) Dirty() []image.Rectangle {
	return append([]image.Rectangle(nil), c.dirty...)
}

func (c *Canvas) ClearDirty() { c.dirty = c.dirty[:0] }

func (c *Canvas) Fill(r image.Rectangle, col color.RGBA) {
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), &image.Uniform{C: col}, image.Point{}, draw.Src)
}

// Blit copies src starting at sp into the canvas rectangle r.
func (c *Canvas) Blit(r image.Rectangle, src image.Image, sp image.Point) {
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), src, sp, draw.Src)
}

// CopyRegion snapshots raw RGBA bytes of r, row-major, for handoff to the
// transmitter goroutine. The canvas itself never crosses goroutines.
func (c *Canvas) CopyRegion(r image.Rectangle) []byte {
	r = r.Intersect(c.img.Bounds())
	w, h := r.Dx(), r.Dy()
	out := make([]byte, 0, w*h*4)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := c.img.PixOffset(r.Min.X, y)
		out = append(out, c.img.Pix[off:off+w*4]...)
	}
	return out
}

// Encode565 converts raw RGBA bytes to RGB565 in the requested byte order.
func Encode565(rgba []byte, bigEndian bool) []byte {
	n := len(rgba) / 4
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		r, g, b := rgba[i*4], rgba[i*4+1], rgba[i*4+2]
		word := (uint16(r)&0xf8)<<8 | (uint16(g)&0xfc)<<3 | (uint16(b)&0xf8)>>3
		if bigEndian {
			out[i*2] = byte(word >> 8)
			out[i*2+1] = byte(word)
		} else {
			out[i*2] = byte(word)
			out[i*2+1] = byte(word >> 8)
		}
	}
	return out
}

// Rotate180 flips a raw RGBA region in place order (returns a new slice).
// Used for software-managed reverse orientations.
func Rotate180(rgba []byte, w, h int) []byte {
	out := make([]byte, len(rgba))
	n := w * h
	for i := 0; i < n; i++ {
		j := n - 1 - i
		copy(out[j*4:j*4+4], rgba[i*4:i*4+4])
	}
	return out
}
