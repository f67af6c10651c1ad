package lcd

import (
	"time"

	"github.com/juju/errors"
	"go.bug.st/serial"
)

// Porter is the byte-duplex channel under a session. The session is the
// sole owner for its lifetime.
type Porter interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(d time.Duration) error
	Close() error
}

type serialPort struct {
	p serial.Port
}

func OpenPort(path string, baud int) (Porter, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, errors.Annotatef(err, "serial open path=%s baud=%d", path, baud)
	}
	return &serialPort{p: p}, nil
}

func (sp *serialPort) Read(b []byte) (int, error)  { return sp.p.Read(b) }
func (sp *serialPort) Write(b []byte) (int, error) { return sp.p.Write(b) }

func (sp *serialPort) SetReadTimeout(d time.Duration) error {
	return sp.p.SetReadTimeout(d)
}

func (sp *serialPort) Close() error { return sp.p.Close() }
