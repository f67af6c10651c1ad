package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirtyClipAndOrder(t *testing.T) {
	t.Parallel()
	c := New(100, 50)
	c.MarkDirty(image.Rect(10, 10, 20, 20))
	c.MarkDirty(image.Rect(90, 40, 200, 200)) // clipped to bounds
	c.MarkDirty(image.Rect(-5, -5, -1, -1))   // fully outside, dropped

	d := c.Dirty()
	require.Len(t, d, 2)
	assert.Equal(t, image.Rect(10, 10, 20, 20), d[0])
	assert.Equal(t, image.Rect(90, 40, 100, 50), d[1])

	c.ClearDirty()
	assert.Empty(t, c.Dirty())
}

func TestEncode565(t *testing.T) {
	t.Parallel()
	// pure red, RGBA bytes
	rgba := []byte{0xff, 0x00, 0x00, 0xff}
	assert.Equal(t, []byte{0xf8, 0x00}, Encode565(rgba, true))
	assert.Equal(t, []byte{0x00, 0xf8}, Encode565(rgba, false))

	// white
	rgba = []byte{0xff, 0xff, 0xff, 0xff}
	assert.Equal(t, []byte{0xff, 0xff}, Encode565(rgba, true))

	// green component keeps 6 bits
	rgba = []byte{0x00, 0xff, 0x00, 0xff}
	assert.Equal(t, []byte{0x07, 0xe0}, Encode565(rgba, true))
}

func TestCopyRegion(t *testing.T) {
	t.Parallel()
	c := New(4, 4)
	c.Fill(image.Rect(1, 1, 3, 3), color.RGBA{R: 1, G: 2, B: 3, A: 255})
	got := c.CopyRegion(image.Rect(1, 1, 3, 2))
	require.Len(t, got, 2*4)
	assert.Equal(t, []byte{1, 2, 3, 255, 1, 2, 3, 255}, got)
}

func TestRotate180(t *testing.T) {
	t.Parallel()
	// 2x1 pixels: A B -> B A
	in := []byte{1, 1, 1, 255, 2, 2, 2, 255}
	out := Rotate180(in, 2, 1)
	assert.Equal(t, []byte{2, 2, 2, 255, 1, 1, 1, 255}, out)
}

func TestMergeAdjacent(t *testing.T) {
	t.Parallel()

	t.Run("disjoint-kept", func(t *testing.T) {
		rs := []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(50, 50, 60, 60)}
		assert.Len(t, MergeAdjacent(rs), 2)
	})

	t.Run("overlap-merged", func(t *testing.T) {
		rs := []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(5, 5, 15, 15)}
		out := MergeAdjacent(rs)
		require.Len(t, out, 1)
		assert.Equal(t, image.Rect(0, 0, 15, 15), out[0])
	})

	t.Run("adjacent-merged", func(t *testing.T) {
		rs := []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(10, 0, 20, 10)}
		out := MergeAdjacent(rs)
		require.Len(t, out, 1)
		assert.Equal(t, image.Rect(0, 0, 20, 10), out[0])
	})

	t.Run("chain-merged", func(t *testing.T) {
		rs := []image.Rectangle{
			image.Rect(0, 0, 10, 10),
			image.Rect(30, 0, 40, 10),
			image.Rect(10, 0, 30, 10), // bridges the other two
		}
		out := MergeAdjacent(rs)
		require.Len(t, out, 1)
		assert.Equal(t, image.Rect(0, 0, 40, 10), out[0])
	})
}
