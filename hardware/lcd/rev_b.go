package lcd

import (
	"bytes"
	"image"

	"github.com/juju/errors"
)

// Rev B commands travel in 10-byte packets framed by the command code at
// both ends, with 8 payload bytes inside.
const (
	cmdBHello          = 0xca
	cmdBSetOrientation = 0xcb
	cmdBDisplayBitmap  = 0xcc
	cmdBSetLighting    = 0xcd
	cmdBSetBrightness  = 0xce
)

// Handshake sub-revisions. A02/A12 ("flagship") carry the backplate LED;
// A11/A12 accept a 0-255 brightness range, the others only on/off.
const (
	subRevB01 = 0x01
	subRevB02 = 0x02
	subRevB11 = 0x11
	subRevB12 = 0x12
)

type revB struct {
	t      *transport
	orient Orientation
	subRev byte
}

func (d *revB) Capability() *Capability { return d.t.caps }
func (d *revB) State() ConnState        { return d.t.State() }

func packB(cmd byte, payload ...byte) []byte {
	buf := make([]byte, 10)
	buf[0] = cmd
	copy(buf[1:9], payload)
	buf[9] = cmd
	return buf
}

var helloB = []byte{'H', 'E', 'L', 'L', 'O'}

func (d *revB) handshake() error {
	if err := writeAll(d.t.port, packB(cmdBHello, helloB...)); err != nil {
		return errors.Annotate(err, "hello write")
	}
	resp := make([]byte, 10)
	if err := d.t.readFull(resp); err != nil {
		return errors.Annotate(err, "hello read")
	}
	if resp[0] != cmdBHello || resp[9] != cmdBHello {
		return errors.Errorf("hello bad framing response=%x", resp)
	}
	if !bytes.Equal(resp[1:6], helloB) {
		return errors.Errorf("hello bad echo response=%x", resp)
	}
	if resp[6] != 0x0a {
		return errors.Errorf("hello unknown sub-revision response=%x", resp)
	}
	d.subRev = resp[7]
	switch d.subRev {
	case subRevB01, subRevB02, subRevB11, subRevB12:
	default:
		return errors.Errorf("hello unknown sub-revision=%02x", d.subRev)
	}
	if !d.flagship() {
		// plain rev B has no backplate LED
		d.t.caps.Led = false
	}
	d.t.log.Debugf("lcd rev=b sub-revision=%02x flagship=%t", d.subRev, d.flagship())
	return nil
}

func (d *revB) flagship() bool        { return d.subRev == subRevB02 || d.subRev == subRevB12 }
func (d *revB) brightnessRange() bool { return d.subRev == subRevB11 || d.subRev == subRevB12 }

func (d *revB) SendFrame(r image.Rectangle, pix []byte) error {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	if len(pix) != w*h*2 {
		return errors.Errorf("lcd rev=b frame %dx%d expects %d bytes, got %d", w, h, w*h*2, len(pix))
	}
	x0, y0 := r.Min.X, r.Min.Y
	x1, y1 := r.Max.X-1, r.Max.Y-1
	frames := [][]byte{packB(cmdBDisplayBitmap,
		byte(x0>>8), byte(x0&255),
		byte(y0>>8), byte(y0&255),
		byte(x1>>8), byte(x1&255),
		byte(y1>>8), byte(y1&255))}
	frames = append(frames, chunkPayload(d.t.caps, pix)...)
	return d.t.tx(frames, nil)
}

func (d *revB) SendFullFrame(pix []byte) error {
	w, h := d.t.caps.Size(d.orient)
	return d.SendFrame(image.Rect(0, 0, w, h), pix)
}

func (d *revB) SetBrightness(levelPct uint8) error {
	if levelPct > 100 {
		levelPct = 100
	}
	var level byte
	if d.brightnessRange() {
		level = byte(float32(levelPct) / 100 * 255)
	} else {
		// only on/off: 1 means off
		if levelPct == 0 {
			level = 1
		}
	}
	return d.t.tx([][]byte{packB(cmdBSetBrightness, level)}, nil)
}

func (d *revB) SetLed(r, g, b uint8) error {
	if !d.flagship() {
		return errors.NotSupportedf("lcd rev=b led sub-revision=%02x", d.subRev)
	}
	return d.t.tx([][]byte{packB(cmdBSetLighting, r, g, b)}, nil)
}

func (d *revB) SetOrientation(o Orientation) error {
	d.orient = o
	// the device only knows portrait/landscape, reverse forms are rotated
	// in software before transmission
	var v byte
	if o.IsLandscape() {
		v = 1
	}
	return d.t.tx([][]byte{packB(cmdBSetOrientation, v)}, nil)
}

func (d *revB) Power(on bool) error {
	// no native power command, darken instead
	if on {
		return d.SetBrightness(25)
	}
	return d.SetBrightness(0)
}

func (d *revB) Reset() error {
	return errors.NotSupportedf("lcd rev=b reset")
}

func (d *revB) Close() error { return d.t.close() }
