package lcd

import (
	"image"

	"github.com/juju/errors"
)

// Rev A command set. Commands are 6 bytes: bit-packed coordinates then the
// command code.
const (
	cmdAReset          = 101
	cmdAClear          = 102
	cmdAScreenOff      = 108
	cmdAScreenOn       = 109
	cmdASetBrightness  = 110
	cmdASetOrientation = 121
	cmdADisplayBitmap  = 197
)

type revA struct {
	t      *transport
	orient Orientation
}

func (d *revA) Capability() *Capability { return d.t.caps }
func (d *revA) State() ConnState        { return d.t.State() }

// Rev A offers no identification command; the device accepts frames right
// after open.
func (d *revA) handshake() error { return nil }

func packA(cmd byte, x, y, ex, ey int) []byte {
	return []byte{
		byte(x >> 2),
		byte(((x & 3) << 6) + (y >> 4)),
		byte(((y & 15) << 4) + (ex >> 6)),
		byte(((ex & 63) << 2) + (ey >> 8)),
		byte(ey & 255),
		cmd,
	}
}

func (d *revA) resetFrame() []byte { return packA(cmdAReset, 0, 0, 0, 0) }

func (d *revA) SendFrame(r image.Rectangle, pix []byte) error {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	if len(pix) != w*h*2 {
		return errors.Errorf("lcd rev=a frame %dx%d expects %d bytes, got %d", w, h, w*h*2, len(pix))
	}
	frames := [][]byte{packA(cmdADisplayBitmap, r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1)}
	frames = append(frames, chunkPayload(d.t.caps, pix)...)
	return d.t.tx(frames, d.resetFrame())
}

func (d *revA) SendFullFrame(pix []byte) error {
	w, h := d.t.caps.Size(d.orient)
	return d.SendFrame(image.Rect(0, 0, w, h), pix)
}

func (d *revA) SetBrightness(levelPct uint8) error {
	if levelPct > 100 {
		levelPct = 100
	}
	// device scale is inverted: 0 brightest, 255 darkest
	level := 255 - int(float32(levelPct)/100*255)
	return d.t.tx([][]byte{packA(cmdASetBrightness, level, 0, 0, 0)}, d.resetFrame())
}

func (d *revA) SetLed(r, g, b uint8) error {
	return errors.NotSupportedf("lcd rev=a led")
}

func (d *revA) SetOrientation(o Orientation) error {
	d.orient = o
	w, h := d.t.caps.Size(o)
	buf := make([]byte, 16)
	copy(buf, packA(cmdASetOrientation, 0, 0, 0, 0))
	buf[6] = byte(o) + 100
	buf[7] = byte(w >> 8)
	buf[8] = byte(w & 255)
	buf[9] = byte(h >> 8)
	buf[10] = byte(h & 255)
	return d.t.tx([][]byte{buf}, d.resetFrame())
}

func (d *revA) Power(on bool) error {
	cmd := byte(cmdAScreenOff)
	if on {
		cmd = cmdAScreenOn
	}
	return d.t.tx([][]byte{packA(cmd, 0, 0, 0, 0)}, d.resetFrame())
}

func (d *revA) Reset() error {
	return d.t.tx([][]byte{d.resetFrame()}, nil)
}

func (d *revA) Close() error { return d.t.close() }
