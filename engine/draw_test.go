package engine

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panelmon/panelmon/canvas"
	"github.com/panelmon/panelmon/theme"
)

func TestStepFilledMidpointRule(t *testing.T) {
	t.Parallel()
	// gauge 60..420 (full circle sweep), 20 steps, 2 degree gaps, value 50%
	span, sep, steps := 360.0, 2.0, 20
	sweep := 0.5 * span
	filled := 0
	for idx := 0; idx < steps; idx++ {
		if stepFilled(span, sep, steps, idx, sweep) {
			filled++
			assert.Less(t, idx, 10, "step %d should not be filled", idx)
		}
	}
	assert.Equal(t, 10, filled)

	// empty and full extremes
	for idx := 0; idx < steps; idx++ {
		assert.False(t, stepFilled(span, sep, steps, idx, 0))
		assert.True(t, stepFilled(span, sep, steps, idx, span))
	}
}

func gaugeWidget(steps int) theme.Widget {
	return theme.Widget{
		Name:       "g",
		Kind:       theme.KindRadialGauge,
		Center:     image.Pt(100, 100),
		Radius:     60,
		LineWidth:  12,
		Rect:       image.Rect(40, 40, 161, 161),
		Min:        0,
		Max:        100,
		AngleStart: 60,
		AngleEnd:   420,
		Steps:      steps,
		StepSep:    2,
		Clockwise:  true,
		Fg:         white,
		Bg:         black,
	}
}

// samples the arc centerline at the given absolute angle
func gaugeSample(cv *canvas.Canvas, w *theme.Widget, absDeg float64) image.Point {
	rad := absDeg * math.Pi / 180
	rm := float64(w.Radius) - float64(w.LineWidth)/2
	x := w.Center.X + int(math.Round(math.Cos(rad)*rm))
	y := w.Center.Y + int(math.Round(math.Sin(rad)*rm))
	return image.Pt(x, y)
}

func TestGaugeSteppedHalf(t *testing.T) {
	t.Parallel()
	w := gaugeWidget(20)
	cv := canvas.New(200, 200)
	drawGauge(cv, &w, 0.5)

	span := w.AngleEnd - w.AngleStart
	stepSpan := (span - float64(w.Steps-1)*w.StepSep) / float64(w.Steps)
	pitch := stepSpan + w.StepSep
	img := cv.RGBA()
	for idx := 0; idx < w.Steps; idx++ {
		mid := float64(idx)*pitch + stepSpan/2
		pt := gaugeSample(cv, &w, w.AngleStart+mid)
		got := img.RGBAAt(pt.X, pt.Y)
		if idx < 10 {
			assert.Equal(t, white, got, "step %d should be filled", idx)
		} else {
			assert.Equal(t, dim(white), got, "step %d should be track", idx)
		}
	}
}

func TestGaugeContinuousSweep(t *testing.T) {
	t.Parallel()
	w := gaugeWidget(1)
	cv := canvas.New(200, 200)
	// continuous arc: filled extent is linear in the value
	drawGauge(cv, &w, 0.25)

	img := cv.RGBA()
	in := gaugeSample(cv, &w, w.AngleStart+45)
	out := gaugeSample(cv, &w, w.AngleStart+135)
	assert.Equal(t, white, img.RGBAAt(in.X, in.Y))
	assert.Equal(t, dim(white), img.RGBAAt(out.X, out.Y))
}

func TestGaugeZeroValue(t *testing.T) {
	t.Parallel()
	w := gaugeWidget(20)
	cv := canvas.New(200, 200)
	drawGauge(cv, &w, 0)

	span := w.AngleEnd - w.AngleStart
	stepSpan := (span - float64(w.Steps-1)*w.StepSep) / float64(w.Steps)
	pt := gaugeSample(cv, &w, w.AngleStart+stepSpan/2)
	assert.Equal(t, dim(white), cv.RGBA().RGBAAt(pt.X, pt.Y))
}

func TestBarFill(t *testing.T) {
	t.Parallel()
	w := theme.Widget{
		Name: "bar",
		Kind: theme.KindLinearBar,
		Rect: image.Rect(0, 0, 100, 10),
		Min:  0, Max: 100,
		Fg: white, Bg: black,
	}
	cv := canvas.New(120, 20)
	cv.Fill(w.Rect, w.Bg)
	drawBar(cv, &w, 0.5)

	img := cv.RGBA()
	assert.Equal(t, white, img.RGBAAt(10, 5))
	assert.Equal(t, white, img.RGBAAt(49, 5))
	assert.Equal(t, black, img.RGBAAt(51, 5))
}

func TestDrawLineClipped(t *testing.T) {
	t.Parallel()
	cv := canvas.New(50, 50)
	clip := image.Rect(10, 10, 40, 40)
	drawLine(cv, clip, image.Pt(0, 25), image.Pt(49, 25), white)

	img := cv.RGBA()
	assert.Equal(t, white, img.RGBAAt(20, 25))
	assert.NotEqual(t, white, img.RGBAAt(5, 25))
	assert.NotEqual(t, white, img.RGBAAt(45, 25))
}
