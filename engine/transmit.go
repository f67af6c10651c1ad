package engine

import (
	"image"
	"image/color"
	"sync/atomic"
	"time"

	"github.com/juju/errors"

	"github.com/panelmon/panelmon/canvas"
	"github.com/panelmon/panelmon/hardware/lcd"
	"github.com/panelmon/panelmon/helpers"
	"github.com/panelmon/panelmon/log2"
	"github.com/panelmon/panelmon/theme"
)

// Region is one dirty rectangle with its raw RGBA pixels, copied out of
// the canvas so the transmitter never touches the canvas itself.
type Region struct {
	Rect image.Rectangle
	Pix  []byte
}

// Batch is one transmitter work unit: optional device settings applied
// first, then pixel regions in produced order. Full batches carry a single
// whole-screen region.
type Batch struct {
	Full       bool
	Orient     *lcd.Orientation
	Brightness *uint8
	Led        *color.RGBA
	Power      *bool
	Regions    []Region
}

// Transmitter owns the protocol session. Runs on a single goroutine;
// reconnects with backoff, forces one full frame after every (re)connect
// and drops partial batches until that full frame is delivered.
type Transmitter struct {
	connect func() (lcd.Session, error)
	log     *log2.Log
	caps    *lcd.Capability
	display theme.Display

	sess     lcd.Session
	orient   lcd.Orientation
	needFull uint32
	lost     bool
	bo       helpers.Backoff

	// stop aborts reconnect backoff waits; nil means wait uninterrupted
	stop <-chan struct{}
}

func NewTransmitter(caps *lcd.Capability, display theme.Display, connect func() (lcd.Session, error), log *log2.Log) *Transmitter {
	tx := &Transmitter{
		connect: connect,
		log:     log,
		caps:    caps,
		display: display,
		orient:  display.Orientation,
		bo:      helpers.Backoff{Min: 500 * time.Millisecond, Max: 30 * time.Second, K: 2},
	}
	tx.setNeedFull(true)
	return tx
}

// NeedFull tells the engine loop the next batch must carry a full frame.
// Set after every connect and after a device reset recovery.
func (tx *Transmitter) NeedFull() bool { return atomic.LoadUint32(&tx.needFull) != 0 }

func (tx *Transmitter) setNeedFull(v bool) {
	var u uint32
	if v {
		u = 1
	}
	atomic.StoreUint32(&tx.needFull, u)
}

// Flush delivers one batch. Connection loss pauses flushing: the error is
// logged once per transition and subsequent batches attempt reconnect.
func (tx *Transmitter) Flush(b *Batch) error {
	if err := tx.ensure(); err != nil {
		return errors.Trace(err)
	}
	if err := tx.applySettings(b); err != nil {
		return tx.fail(err)
	}
	if tx.NeedFull() && !b.Full {
		// stale partials are useless until a full resync lands
		return nil
	}
	for _, reg := range b.Regions {
		var err error
		if b.Full {
			_, pix := tx.xform(reg)
			err = tx.sess.SendFullFrame(pix)
		} else {
			r, pix := tx.xform(reg)
			err = tx.sess.SendFrame(r, pix)
		}
		if err != nil {
			return tx.fail(err)
		}
	}
	if b.Full {
		tx.setNeedFull(false)
	}
	return nil
}

// Close shuts the session down; the engine calls it once on stop.
func (tx *Transmitter) Close() error {
	if tx.sess == nil {
		return nil
	}
	err := tx.sess.Close()
	tx.sess = nil
	return err
}

func (tx *Transmitter) ensure() error {
	if tx.sess != nil && tx.sess.State() != lcd.StateDisconnected {
		return nil
	}
	tx.sess = nil
	if d := tx.bo.DelayBefore(); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-tx.stop:
			t.Stop()
			return errors.Errorf("lcd connect aborted")
		}
	}
	s, err := tx.connect()
	tx.bo.Update(err == nil)
	if err != nil {
		if !tx.lost {
			tx.log.Errorf("lcd connect: %v", err)
			tx.lost = true
		}
		return errors.Trace(err)
	}
	tx.sess = s
	if err = tx.setup(); err != nil {
		_ = s.Close()
		tx.sess = nil
		return errors.Annotate(err, "lcd setup")
	}
	tx.setNeedFull(true)
	if tx.lost {
		tx.log.Infof("lcd reconnected")
		tx.lost = false
	}
	return nil
}

// setup restores device settings after (re)connect or reset.
func (tx *Transmitter) setup() error {
	if tx.caps.PowerControl {
		if err := tx.sess.Power(true); err != nil {
			return errors.Trace(err)
		}
	}
	if err := tx.sess.SetOrientation(tx.deviceOrient(tx.orient)); err != nil {
		return errors.Trace(err)
	}
	if err := tx.sess.SetBrightness(tx.display.Brightness); err != nil {
		return errors.Trace(err)
	}
	if tx.display.HasLed && tx.caps.Led {
		led := tx.display.Led
		if err := tx.sess.SetLed(led.R, led.G, led.B); err != nil && !errors.IsNotSupported(err) {
			return errors.Trace(err)
		}
	}
	return nil
}

func (tx *Transmitter) applySettings(b *Batch) error {
	if b.Orient != nil {
		tx.orient = *b.Orient
		if err := tx.sess.SetOrientation(tx.deviceOrient(tx.orient)); err != nil {
			return errors.Trace(err)
		}
		tx.setNeedFull(true)
	}
	if b.Brightness != nil {
		tx.display.Brightness = *b.Brightness
		if err := tx.sess.SetBrightness(*b.Brightness); err != nil {
			return errors.Trace(err)
		}
	}
	if b.Led != nil {
		tx.display.Led, tx.display.HasLed = *b.Led, true
		if err := tx.sess.SetLed(b.Led.R, b.Led.G, b.Led.B); err != nil {
			if errors.IsNotSupported(err) {
				tx.log.Errorf("lcd led: %v", err)
				return nil
			}
			return errors.Trace(err)
		}
	}
	if b.Power != nil {
		if err := tx.sess.Power(*b.Power); err != nil && !errors.IsNotSupported(err) {
			return errors.Trace(err)
		}
	}
	return nil
}

// fail classifies a session error. ConnectionLost drops the session and is
// logged once; a reset recovery keeps the session but forces a full resync
// because the device state is gone.
func (tx *Transmitter) fail(err error) error {
	if errors.Cause(err) == lcd.ErrConnectionLost {
		tx.sess = nil
		if !tx.lost {
			tx.log.Errorf("lcd connection lost: %v", err)
			tx.lost = true
		}
		return errors.Trace(err)
	}
	if errors.IsNotSupported(err) {
		return errors.Trace(err)
	}
	tx.setNeedFull(true)
	if serr := tx.setup(); serr != nil {
		_ = tx.sess.Close()
		tx.sess = nil
		if !tx.lost {
			tx.log.Errorf("lcd connection lost: %v", serr)
			tx.lost = true
		}
	}
	return errors.Trace(err)
}

func (tx *Transmitter) softwareReverse() bool {
	return tx.caps.SoftwareReverse && tx.orient.IsReverse()
}

// deviceOrient maps the logical orientation to what the device is told.
// Revisions without hardware reverse get the base orientation and the
// transmitter rotates pixels itself.
func (tx *Transmitter) deviceOrient(o lcd.Orientation) lcd.Orientation {
	if tx.caps.SoftwareReverse && o.IsReverse() {
		if o == lcd.ReversePortrait {
			return lcd.Portrait
		}
		return lcd.Landscape
	}
	return o
}

// xform encodes a region for the wire, applying the software 180 degree
// rotation when the device cannot reverse in hardware.
func (tx *Transmitter) xform(reg Region) (image.Rectangle, []byte) {
	if !tx.softwareReverse() {
		return reg.Rect, canvas.Encode565(reg.Pix, tx.caps.BigEndianPixels)
	}
	w, h := tx.caps.Size(tx.orient)
	rot := canvas.Rotate180(reg.Pix, reg.Rect.Dx(), reg.Rect.Dy())
	mirrored := image.Rect(w-reg.Rect.Max.X, h-reg.Rect.Max.Y, w-reg.Rect.Min.X, h-reg.Rect.Min.Y)
	return mirrored, canvas.Encode565(rot, tx.caps.BigEndianPixels)
}
