package lcd

import (
	"bytes"
	"image"

	"github.com/juju/errors"
)

// Rev C commands start with the command code followed by the 0xef 0x69
// magic and a 3-byte zero pad; most take a single trailing argument byte.
const (
	cmdCHello          = 0x01
	cmdCOptions        = 0x7d
	cmdCSetBrightness  = 0x7b
	cmdCPower          = 0x83
	cmdCRestart        = 0x84
	cmdCPreUpdate      = 0x86
	cmdCDisplayBitmap  = 0xc8
	cmdCSetOrientation = 0x7c
)

// ident signature returned by the panel firmware to the hello command
var signatureC = []byte("chs_5inch.dev1_rom1.87\x00")

type revC struct {
	t      *transport
	orient Orientation
}

func (d *revC) Capability() *Capability { return d.t.caps }
func (d *revC) State() ConnState        { return d.t.State() }

func packC(cmd byte, args ...byte) []byte {
	buf := []byte{cmd, 0xef, 0x69, 0x00, 0x00, 0x00}
	return append(buf, args...)
}

func (d *revC) handshake() error {
	hello := packC(cmdCHello, 0x01, 0x00, 0x00, 0x00, 0xc5, 0xd3)
	if err := writeAll(d.t.port, hello); err != nil {
		return errors.Annotate(err, "hello write")
	}
	resp := make([]byte, len(signatureC))
	if err := d.t.readFull(resp); err != nil {
		return errors.Annotate(err, "hello read")
	}
	if !bytes.Equal(resp, signatureC) {
		return errors.Errorf("hello bad signature response=%q", resp)
	}
	return nil
}

func (d *revC) resetFrame() []byte { return packC(cmdCRestart, 0x01) }

// Rev C accepts only whole-screen replacement.
func (d *revC) SendFrame(r image.Rectangle, pix []byte) error {
	return errors.NotSupportedf("lcd rev=c partial update")
}

func (d *revC) SendFullFrame(pix []byte) error {
	w, h := d.t.caps.Size(d.orient)
	if len(pix) != w*h*2 {
		return errors.Errorf("lcd rev=c full frame expects %d bytes, got %d", w*h*2, len(pix))
	}
	frames := [][]byte{
		packC(cmdCPreUpdate, 0x01),
		packC(cmdCDisplayBitmap, byte(len(pix)>>16), byte(len(pix)>>8), byte(len(pix))),
	}
	frames = append(frames, chunkPayload(d.t.caps, pix)...)
	return d.t.tx(frames, d.resetFrame())
}

func (d *revC) SetBrightness(levelPct uint8) error {
	if levelPct > 100 {
		levelPct = 100
	}
	level := byte(float32(levelPct) / 100 * 255)
	return d.t.tx([][]byte{packC(cmdCSetBrightness, 0x01, 0x00, 0x00, 0x00, level)}, d.resetFrame())
}

func (d *revC) SetLed(r, g, b uint8) error {
	return errors.NotSupportedf("lcd rev=c led")
}

func (d *revC) SetOrientation(o Orientation) error {
	d.orient = o
	return d.t.tx([][]byte{packC(cmdCSetOrientation, byte(o))}, d.resetFrame())
}

func (d *revC) Power(on bool) error {
	arg := byte(0x01) // off
	if on {
		arg = 0x00
	}
	return d.t.tx([][]byte{packC(cmdCPower, arg)}, d.resetFrame())
}

func (d *revC) Reset() error {
	return d.t.tx([][]byte{d.resetFrame()}, nil)
}

func (d *revC) Close() error { return d.t.close() }
