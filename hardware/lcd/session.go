package lcd

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/juju/errors"

	"github.com/panelmon/panelmon/log2"
)

//go:generate stringer -type=ConnState -trimprefix=State
type ConnState uint32

const (
	StateDisconnected ConnState = iota
	StateHandshaking
	StateReady
	StateSending
	StateErrorRecovery
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateHandshaking:
		return "Handshaking"
	case StateReady:
		return "Ready"
	case StateSending:
		return "Sending"
	case StateErrorRecovery:
		return "ErrorRecovery"
	}
	return fmt.Sprintf("ConnState(%d)", uint32(s))
}

var (
	ErrHandshakeFailed = fmt.Errorf("lcd: handshake failed")
	ErrConnectionLost  = fmt.Errorf("lcd: connection lost")
)

// number of attempts for one write before the session enters ErrorRecovery
const txAttempts = 2

const DefaultReadTimeout = 2 * time.Second

// Session is the per-revision protocol state machine. One command at a
// time: the device interprets commands strictly in arrival order, callers
// (the Transmitter) must not overlap them.
type Session interface {
	Capability() *Capability
	State() ConnState

	// SendFrame writes RGB565 pixels (already in the revision byte order)
	// into the given sub-rectangle. Capability without PartialUpdate
	// returns a not-supported error.
	SendFrame(r image.Rectangle, pix []byte) error
	// SendFullFrame replaces the whole screen for the current orientation.
	SendFullFrame(pix []byte) error
	SetBrightness(levelPct uint8) error
	SetLed(r, g, b uint8) error
	SetOrientation(o Orientation) error
	Power(on bool) error
	Reset() error
	Close() error
}

type Options struct {
	Port string
	Baud int
	Rev  Revision

	// Porter overrides the serial transport, for tests.
	Porter      Porter
	ReadTimeout time.Duration
}

type session interface {
	Session
	handshake() error
}

// Connect opens the port, runs the revision handshake and returns a Ready
// session. HandshakeFailed is not retried here; reconnect policy belongs to
// the caller.
func Connect(opt Options, log *log2.Log) (Session, error) {
	caps, err := CapabilityOf(opt.Rev)
	if err != nil {
		return nil, errors.Trace(err)
	}
	port := opt.Porter
	if port == nil {
		if port, err = OpenPort(opt.Port, opt.Baud); err != nil {
			return nil, errors.Annotatef(err, "lcd connect port=%s", opt.Port)
		}
	}
	readTimeout := opt.ReadTimeout
	if readTimeout == 0 {
		readTimeout = DefaultReadTimeout
	}

	t := &transport{
		caps:        caps,
		port:        port,
		log:         log,
		readTimeout: readTimeout,
	}
	var s session
	switch opt.Rev {
	case RevA:
		s = &revA{t: t}
	case RevB:
		s = &revB{t: t}
	case RevC:
		s = &revC{t: t}
	case RevD:
		s = &revD{t: t}
	default:
		_ = port.Close()
		return nil, errors.NotFoundf("display revision=%s", string(opt.Rev))
	}

	t.setState(StateHandshaking)
	if err = s.handshake(); err != nil {
		t.setState(StateDisconnected)
		_ = port.Close()
		return nil, errors.Annotatef(errors.Wrap(err, ErrHandshakeFailed), "rev=%s port=%s", opt.Rev, opt.Port)
	}
	t.setState(StateReady)
	log.Debugf("lcd connect rev=%s port=%s state=%s", opt.Rev, opt.Port, t.State())
	return s, nil
}

// transport is the shared session core: port ownership, state word, retry
// and error recovery. Each revision embeds one by pointer; per-revision
// code only encodes byte sequences.
type transport struct {
	caps        *Capability
	port        Porter
	log         *log2.Log
	state       uint32 // ConnState
	readTimeout time.Duration
}

func (t *transport) setState(s ConnState) { atomic.StoreUint32(&t.state, uint32(s)) }
func (t *transport) State() ConnState     { return ConnState(atomic.LoadUint32(&t.state)) }

func (t *transport) closed() bool { return t.State() == StateDisconnected }

// tx writes frames in order. A failed write is retried with the same
// payload up to txAttempts total; persistent failure enters ErrorRecovery
// which issues resetFrame once. Reset success returns the session to Ready
// (the original command is still reported failed); reset failure or absence
// disconnects and surfaces ConnectionLost.
func (t *transport) tx(frames [][]byte, resetFrame []byte) error {
	if t.closed() {
		return errors.Trace(ErrConnectionLost)
	}
	t.setState(StateSending)
	defer func() {
		if t.State() == StateSending {
			t.setState(StateReady)
		}
	}()

	for _, f := range frames {
		if err := t.writeRetry(f); err != nil {
			return t.recover(resetFrame, err)
		}
	}
	return nil
}

func (t *transport) writeRetry(b []byte) error {
	var err error
	for try := 1; try <= txAttempts; try++ {
		if err = writeAll(t.port, b); err == nil {
			return nil
		}
		t.log.Debugf("lcd write try=%d/%d len=%d err=%v", try, txAttempts, len(b), err)
	}
	return errors.Annotatef(err, "lcd write len=%d", len(b))
}

func (t *transport) recover(resetFrame []byte, cause error) error {
	t.setState(StateErrorRecovery)
	t.log.Errorf("lcd entering recovery: %v", cause)
	if resetFrame != nil {
		if err := writeAll(t.port, resetFrame); err == nil {
			t.setState(StateReady)
			t.log.Infof("lcd recovery reset ok")
			return errors.Annotate(cause, "recovered after reset")
		}
	}
	t.setState(StateDisconnected)
	_ = t.port.Close()
	return errors.Wrap(cause, ErrConnectionLost)
}

// readFull reads exactly len(b) bytes within the transport read timeout.
func (t *transport) readFull(b []byte) error {
	_ = t.port.SetReadTimeout(t.readTimeout)
	deadline := time.Now().Add(t.readTimeout)
	total := 0
	for total < len(b) {
		n, err := t.port.Read(b[total:])
		if err != nil {
			return errors.Annotatef(err, "lcd read want=%d got=%d", len(b), total)
		}
		total += n
		if n == 0 {
			if time.Now().After(deadline) {
				return errors.Timeoutf("lcd read want=%d got=%d", len(b), total)
			}
			time.Sleep(t.readTimeout / 20)
		}
	}
	return nil
}

func (t *transport) close() error {
	if t.closed() {
		return nil
	}
	t.setState(StateDisconnected)
	return t.port.Close()
}

func writeAll(p Porter, b []byte) error {
	for len(b) > 0 {
		n, err := p.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
