package theme

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"

	"github.com/panelmon/panelmon/hardware/lcd"
	"github.com/panelmon/panelmon/helpers"
	"github.com/panelmon/panelmon/log2"
)

const DefaultInterval = 1 * time.Second

// raw* mirror the HCL file shape; Read compiles them into the typed model.
type rawTheme struct {
	Display rawDisplay  `hcl:"display"`
	Widgets []rawWidget `hcl:"widget"`
}

type rawDisplay struct {
	Revision        string `hcl:"revision"`
	Port            string `hcl:"port"`
	Baud            int    `hcl:"baud"`
	Brightness      int    `hcl:"brightness"`
	Orientation     string `hcl:"orientation"`
	Led             string `hcl:"led"`
	Background      string `hcl:"background"`
	BackgroundImage string `hcl:"background_image"`
}

type rawWidget struct { //nolint:maligned
	Name     string `hcl:"name,key"`
	Type     string `hcl:"type"`
	X        int    `hcl:"x"`
	Y        int    `hcl:"y"`
	W        int    `hcl:"w"`
	H        int    `hcl:"h"`
	Stat     string `hcl:"stat"`
	Interval string `hcl:"interval"`
	Fallback string `hcl:"fallback"`

	Color         string `hcl:"color"`
	Background    string `hcl:"background"`
	UseThemeImage bool   `hcl:"use_theme_background"`

	Min float64 `hcl:"min"`
	Max float64 `hcl:"max"`

	Radius     int     `hcl:"radius"`
	LineWidth  int     `hcl:"line_width"`
	AngleStart float64 `hcl:"angle_start"`
	AngleEnd   float64 `hcl:"angle_end"`
	Steps      int     `hcl:"steps"`
	StepSep    float64 `hcl:"step_sep"`
	Clockwise  *bool   `hcl:"clockwise"`

	History   int  `hcl:"history"`
	Autoscale bool `hcl:"autoscale"`

	Outline bool `hcl:"outline"`

	Image string `hcl:"image"`
}

// ParseColor accepts "r, g, b" decimal components, same format the device
// LED command takes.
func ParseColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	_, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "%d,%d,%d", &r, &g, &b)
	if err != nil {
		return color.RGBA{}, errors.NotValidf("color=%s", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "static_image":
		return KindStaticImage, nil
	case "text":
		return KindText, nil
	case "linear_bar":
		return KindLinearBar, nil
	case "line_graph":
		return KindLineGraph, nil
	case "radial_gauge":
		return KindRadialGauge, nil
	}
	return 0, errors.NotValidf("widget type=%s", s)
}

// Read parses and validates a theme file. All errors are folded so a broken
// theme reports every problem in one run.
func Read(log *log2.Log, fs FullReader, name string) (*Theme, *lcd.Capability, error) {
	norm := fs.Normalize(name)
	log.Debugf("theme reading name=%s path=%s", name, norm)
	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		return nil, nil, errors.NotFoundf("theme name=%s path=%s", name, norm)
	}
	if err != nil {
		return nil, nil, errors.Annotatef(err, "theme name=%s", name)
	}

	raw := &rawTheme{}
	if err = hcl.Unmarshal(bs, raw); err != nil {
		return nil, nil, errors.Annotatef(err, "theme unmarshal name=%s", name)
	}
	return compile(fs, raw)
}

func MustRead(log *log2.Log, fs FullReader, name string) (*Theme, *lcd.Capability) {
	t, caps, err := Read(log, fs, name)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return t, caps
}

func compile(fs FullReader, raw *rawTheme) (*Theme, *lcd.Capability, error) {
	errs := make([]error, 0, 8)

	caps, err := lcd.CapabilityOf(lcd.Revision(strings.ToLower(raw.Display.Revision)))
	if err != nil {
		// no capability means no geometry to validate against, bail early
		return nil, nil, errors.Annotate(err, "theme display")
	}

	t := &Theme{}
	compileDisplay(fs, raw, caps, t, &errs)
	w, h := caps.Size(t.Display.Orientation)
	screen := image.Rect(0, 0, w, h)

	seen := make(map[string]struct{}, len(raw.Widgets))
	for i := range raw.Widgets {
		rw := &raw.Widgets[i]
		if _, ok := seen[rw.Name]; ok {
			errs = append(errs, errors.Errorf("widget=%s duplicate name", rw.Name))
			continue
		}
		seen[rw.Name] = struct{}{}
		wd, werrs := compileWidget(fs, rw, t.Display.BgImage, screen)
		if len(werrs) > 0 {
			errs = append(errs, werrs...)
			continue
		}
		t.Widgets = append(t.Widgets, wd)
	}

	if err := helpers.FoldErrors(errs); err != nil {
		return nil, nil, err
	}
	return t, caps, nil
}

func compileDisplay(fs FullReader, raw *rawTheme, caps *lcd.Capability, t *Theme, errs *[]error) {
	d := &t.Display
	d.Rev = caps.Revision
	d.Port = raw.Display.Port
	d.Baud = raw.Display.Baud
	if raw.Display.Brightness < 0 || raw.Display.Brightness > 100 {
		*errs = append(*errs, errors.Errorf("display brightness=%d outside 0..100", raw.Display.Brightness))
	} else {
		d.Brightness = uint8(raw.Display.Brightness)
	}
	o, err := lcd.ParseOrientation(raw.Display.Orientation)
	if err != nil {
		*errs = append(*errs, errors.Annotate(err, "display"))
	}
	d.Orientation = o
	if raw.Display.Led != "" {
		if !caps.Led {
			*errs = append(*errs, errors.Errorf("display led set but revision=%s has no led", caps.Revision))
		} else if d.Led, err = ParseColor(raw.Display.Led); err != nil {
			*errs = append(*errs, errors.Annotate(err, "display led"))
		} else {
			d.HasLed = true
		}
	}
	if raw.Display.Background != "" {
		if d.Background, err = ParseColor(raw.Display.Background); err != nil {
			*errs = append(*errs, errors.Annotate(err, "display background"))
		}
	}
	if raw.Display.BackgroundImage != "" {
		img, err := readImage(fs, raw.Display.BackgroundImage)
		if err != nil {
			*errs = append(*errs, errors.Annotate(err, "display background_image"))
			return
		}
		w, h := caps.Size(o)
		if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
			*errs = append(*errs, errors.Errorf("display background_image %dx%d does not match screen %dx%d",
				b.Dx(), b.Dy(), w, h))
			return
		}
		d.BgImage = img
	}
}

func compileWidget(fs FullReader, rw *rawWidget, bgImage image.Image, screen image.Rectangle) (Widget, []error) {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, errors.Errorf("widget=%s "+format, append([]interface{}{rw.Name}, args...)...))
	}

	wd := Widget{
		Name:     rw.Name,
		Stat:     rw.Stat,
		Fallback: rw.Fallback,
		Min:      rw.Min,
		Max:      rw.Max,
		Outline:  rw.Outline,
	}
	kind, err := parseKind(rw.Type)
	if err != nil {
		return wd, []error{errors.Annotatef(err, "widget=%s", rw.Name)}
	}
	wd.Kind = kind

	// static content renders once; interval <= 0 means no rescheduling
	wd.Interval = DefaultInterval
	if kind == KindStaticImage {
		wd.Interval = 0
	}
	if rw.Interval != "" {
		if wd.Interval, err = time.ParseDuration(rw.Interval); err != nil {
			fail("interval=%s: %s", rw.Interval, err)
		}
	}

	wd.Fg = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	if rw.Color != "" {
		if wd.Fg, err = ParseColor(rw.Color); err != nil {
			fail("color: %s", err)
		}
	}
	wd.Bg = color.RGBA{A: 0xff}
	if rw.Background != "" {
		if wd.Bg, err = ParseColor(rw.Background); err != nil {
			fail("background: %s", err)
		}
	}
	if rw.UseThemeImage {
		if bgImage == nil {
			fail("use_theme_background without display background_image")
		}
		wd.BgImage = bgImage
	}

	switch kind {
	case KindRadialGauge:
		// gauge geometry is center+radius, the box is derived
		r := rw.Radius
		if r <= 0 {
			fail("radius=%d must be positive", r)
			r = 1
		}
		if rw.LineWidth <= 0 || rw.LineWidth > r {
			fail("line_width=%d outside 1..radius", rw.LineWidth)
		}
		wd.Center = image.Pt(rw.X, rw.Y)
		wd.Radius = r
		wd.LineWidth = rw.LineWidth
		wd.Rect = image.Rect(rw.X-r, rw.Y-r, rw.X+r+1, rw.Y+r+1)
		wd.AngleStart = rw.AngleStart
		wd.AngleEnd = rw.AngleEnd
		if rw.AngleEnd <= rw.AngleStart {
			fail("angle_end=%v must be greater than angle_start=%v", rw.AngleEnd, rw.AngleStart)
		} else if rw.AngleEnd-rw.AngleStart > 360 {
			// the renderer works modulo 360, a wider span would silently truncate
			fail("angle span=%v wider than full circle", rw.AngleEnd-rw.AngleStart)
		}
		wd.Steps = rw.Steps
		if wd.Steps <= 0 {
			fail("steps=%d must be positive", rw.Steps)
		}
		wd.StepSep = rw.StepSep
		if rw.StepSep < 0 {
			fail("step_sep=%v must not be negative", rw.StepSep)
		}
		wd.Clockwise = true
		if rw.Clockwise != nil {
			wd.Clockwise = *rw.Clockwise
		}
	default:
		wd.Rect = image.Rect(rw.X, rw.Y, rw.X+rw.W, rw.Y+rw.H)
		if rw.W <= 0 || rw.H <= 0 {
			fail("size %dx%d must be positive", rw.W, rw.H)
		}
	}
	if !wd.Rect.In(screen) {
		fail("rect %v outside screen %v", wd.Rect, screen)
	}

	switch kind {
	case KindStaticImage:
		if rw.Image == "" {
			fail("image asset required")
		} else if wd.Image, err = readImage(fs, rw.Image); err != nil {
			errs = append(errs, errors.Annotatef(err, "widget=%s", rw.Name))
		}
	case KindText:
		if rw.Stat == "" {
			fail("stat key required")
		}
	case KindLinearBar, KindRadialGauge:
		if rw.Stat == "" {
			fail("stat key required")
		}
		if rw.Min >= rw.Max {
			fail("min=%v max=%v empty range", rw.Min, rw.Max)
		}
	case KindLineGraph:
		if rw.Stat == "" {
			fail("stat key required")
		}
		wd.History = rw.History
		if wd.History == 0 {
			wd.History = wd.Rect.Dx()
		}
		if wd.History < 2 {
			fail("history=%d too short", rw.History)
		}
		wd.Autoscale = rw.Autoscale
		if !rw.Autoscale && rw.Min >= rw.Max {
			fail("min=%v max=%v empty range without autoscale", rw.Min, rw.Max)
		}
	}
	return wd, errs
}
