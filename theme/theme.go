// Package theme turns a declarative panel description into the immutable
// widget model the engine runs. All validation happens here, before first
// render; geometry or range errors never surface mid-run.
package theme

import (
	"image"
	"image/color"
	"time"

	"github.com/panelmon/panelmon/hardware/lcd"
)

type Kind uint8

const (
	KindStaticImage Kind = iota
	KindText
	KindLinearBar
	KindLineGraph
	KindRadialGauge
)

func (k Kind) String() string {
	switch k {
	case KindStaticImage:
		return "static_image"
	case KindText:
		return "text"
	case KindLinearBar:
		return "linear_bar"
	case KindLineGraph:
		return "line_graph"
	case KindRadialGauge:
		return "radial_gauge"
	}
	return "unknown"
}

// Widget is one renderable element, bound to a stat key and a refresh
// interval. Immutable after theme load.
type Widget struct {
	Name     string
	Kind     Kind
	Rect     image.Rectangle // bounding box, also the dirty region on redraw
	Stat     string
	Interval time.Duration
	Fallback string

	Fg color.RGBA
	Bg color.RGBA
	// BgImage, when set, backgrounds are cropped from it instead of Bg fill
	BgImage image.Image

	// linear bar / graph / gauge value range
	Min, Max float64

	// radial gauge
	Center     image.Point
	Radius     int
	LineWidth  int
	AngleStart float64
	AngleEnd   float64 // may pass 360 to encode sweep
	Steps      int
	StepSep    float64
	Clockwise  bool

	// line graph
	History   int
	Autoscale bool

	// linear bar
	Outline bool

	// static image
	Image image.Image
}

type Display struct {
	Rev         lcd.Revision
	Port        string
	Baud        int
	Brightness  uint8
	Orientation lcd.Orientation
	Led         color.RGBA
	HasLed      bool
	Background  color.RGBA
	BgImage     image.Image
}

// Theme is static input: widget order is part of the visual contract,
// later widgets may overlap earlier ones.
type Theme struct {
	Display Display
	Widgets []Widget
}

// Size returns the canvas resolution for the configured orientation.
func (t *Theme) Size(caps *lcd.Capability) (int, int) {
	return caps.Size(t.Display.Orientation)
}
