package lcd

import (
	"image"

	"github.com/juju/errors"

	"github.com/panelmon/panelmon/crc"
)

// Rev D frames: 0xAA marker, command code, big-endian payload length, then
// the payload. Every frame carries a trailing CRC8 (poly 0x93); pixel
// chunks are checksummed separately by chunkPayload.
const (
	frameDMarker = 0xaa

	cmdDIdent          = 0x01
	cmdDReset          = 0x02
	cmdDPower          = 0x03
	cmdDSetBrightness  = 0x04
	cmdDSetLed         = 0x05
	cmdDSetOrientation = 0x06
	cmdDBlitRect       = 0x10
)

// ident response: marker, 0xd1 family code, CRC8 over the first two bytes
var identRespD = []byte{frameDMarker, 0xd1, crc.CRC8_p93_2(frameDMarker, 0xd1)}

type revD struct {
	t      *transport
	orient Orientation
}

func (d *revD) Capability() *Capability { return d.t.caps }
func (d *revD) State() ConnState        { return d.t.State() }

func packD(cmd byte, payload ...byte) []byte {
	n := len(payload)
	buf := make([]byte, 0, n+5)
	buf = append(buf, frameDMarker, cmd, byte(n>>8), byte(n))
	buf = append(buf, payload...)
	return append(buf, crc.CRC8_p93_n(0, buf))
}

func (d *revD) handshake() error {
	if err := writeAll(d.t.port, packD(cmdDIdent)); err != nil {
		return errors.Annotate(err, "ident write")
	}
	resp := make([]byte, len(identRespD))
	if err := d.t.readFull(resp); err != nil {
		return errors.Annotate(err, "ident read")
	}
	for i := range resp {
		if resp[i] != identRespD[i] {
			return errors.Errorf("ident bad response=%x", resp)
		}
	}
	return nil
}

func (d *revD) resetFrame() []byte { return packD(cmdDReset) }

func (d *revD) SendFrame(r image.Rectangle, pix []byte) error {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	if len(pix) != w*h*2 {
		return errors.Errorf("lcd rev=d frame %dx%d expects %d bytes, got %d", w, h, w*h*2, len(pix))
	}
	x0, y0 := r.Min.X, r.Min.Y
	frames := [][]byte{packD(cmdDBlitRect,
		byte(x0>>8), byte(x0),
		byte(y0>>8), byte(y0),
		byte(w>>8), byte(w),
		byte(h>>8), byte(h))}
	frames = append(frames, chunkPayload(d.t.caps, pix)...)
	return d.t.tx(frames, d.resetFrame())
}

func (d *revD) SendFullFrame(pix []byte) error {
	w, h := d.t.caps.Size(d.orient)
	return d.SendFrame(image.Rect(0, 0, w, h), pix)
}

func (d *revD) SetBrightness(levelPct uint8) error {
	if levelPct > 100 {
		levelPct = 100
	}
	level := byte(float32(levelPct) / 100 * 255)
	return d.t.tx([][]byte{packD(cmdDSetBrightness, level)}, d.resetFrame())
}

func (d *revD) SetLed(r, g, b uint8) error {
	return d.t.tx([][]byte{packD(cmdDSetLed, r, g, b)}, d.resetFrame())
}

func (d *revD) SetOrientation(o Orientation) error {
	d.orient = o
	return d.t.tx([][]byte{packD(cmdDSetOrientation, byte(o))}, d.resetFrame())
}

func (d *revD) Power(on bool) error {
	arg := byte(0)
	if on {
		arg = 1
	}
	return d.t.tx([][]byte{packD(cmdDPower, arg)}, d.resetFrame())
}

func (d *revD) Reset() error {
	return d.t.tx([][]byte{d.resetFrame()}, nil)
}

func (d *revD) Close() error { return d.t.close() }
