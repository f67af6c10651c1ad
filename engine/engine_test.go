package engine

import (
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelmon/panelmon/hardware/lcd"
	"github.com/panelmon/panelmon/log2"
	"github.com/panelmon/panelmon/stats"
	"github.com/panelmon/panelmon/theme"
)

func runEngine(t *testing.T, th *theme.Theme, caps *lcd.Capability, connect func() (lcd.Session, error)) (*Engine, func()) {
	e, err := New(Config{
		Theme:   th,
		Caps:    caps,
		Log:     log2.NewTest(t, log2.LError),
		Connect: connect,
	})
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		_ = e.Run()
		close(done)
	}()
	return e, func() {
		e.Stop()
		<-done
	}
}

func TestEngineFullFrameOnlyDevice(t *testing.T) {
	t.Parallel()
	caps, err := lcd.CapabilityOf(lcd.RevC)
	require.NoError(t, err)
	th := &theme.Theme{
		Display: theme.Display{Rev: lcd.RevC, Orientation: lcd.Portrait, Brightness: 50},
		Widgets: []theme.Widget{
			textWidget("a", "stat_a", image.Rect(0, 0, 100, 20)),
			textWidget("b", "stat_b", image.Rect(0, 30, 100, 50)),
		},
	}
	sess := newMockSession(caps)
	e, stop := runEngine(t, th, caps, func() (lcd.Session, error) { return sess, nil })
	defer stop()

	require.Eventually(t, func() bool {
		full, _ := sess.snapshot()
		return full >= 1
	}, 2*time.Second, 5*time.Millisecond)
	before, _ := sess.snapshot()

	// two widgets change in the same tick: one full write, zero partials
	e.Cache().Set("stat_a", stats.Num(1, ""))
	e.Cache().Set("stat_b", stats.Num(2, ""))
	require.Eventually(t, func() bool {
		full, _ := sess.snapshot()
		return full > before
	}, 2*time.Second, 5*time.Millisecond)

	_, partials := sess.snapshot()
	assert.Empty(t, partials, "device without partial update must only see full frames")
}

func TestEnginePartialRegions(t *testing.T) {
	t.Parallel()
	caps, err := lcd.CapabilityOf(lcd.RevA)
	require.NoError(t, err)
	rectA := image.Rect(0, 0, 100, 20)
	th := &theme.Theme{
		Display: theme.Display{Rev: lcd.RevA, Orientation: lcd.Portrait, Brightness: 50},
		Widgets: []theme.Widget{textWidget("a", "stat_a", rectA)},
	}
	sess := newMockSession(caps)
	e, stop := runEngine(t, th, caps, func() (lcd.Session, error) { return sess, nil })
	defer stop()

	// first frame is always full
	require.Eventually(t, func() bool {
		full, _ := sess.snapshot()
		return full >= 1 && !e.tx.NeedFull()
	}, 2*time.Second, 5*time.Millisecond)
	fullBefore, _ := sess.snapshot()

	e.Cache().Set("stat_a", stats.Num(42, ""))
	require.Eventually(t, func() bool {
		_, partials := sess.snapshot()
		return len(partials) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	full, partials := sess.snapshot()
	assert.Equal(t, fullBefore, full, "no full frames after resync")
	for _, r := range partials {
		assert.True(t, rectA.In(r) || r.In(rectA) || r.Eq(rectA), "unexpected region %v", r)
	}
}

func TestEngineStopDuringReconnect(t *testing.T) {
	t.Parallel()
	caps, err := lcd.CapabilityOf(lcd.RevA)
	require.NoError(t, err)
	th := &theme.Theme{
		Display: theme.Display{Rev: lcd.RevA, Orientation: lcd.Portrait, Brightness: 50},
		Widgets: []theme.Widget{textWidget("a", "stat_a", image.Rect(0, 0, 100, 20))},
	}
	var attempts int32
	connect := func() (lcd.Session, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.Errorf("no device")
	}
	_, stop := runEngine(t, th, caps, connect)

	// second failure pushes the reconnect delay well past the stop bound
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) >= 2
	}, 5*time.Second, 5*time.Millisecond)

	begin := time.Now()
	stop()
	assert.True(t, time.Since(begin) < 200*time.Millisecond,
		"stop took %v while device unreachable", time.Since(begin))
}

func TestEngineBrightnessOp(t *testing.T) {
	t.Parallel()
	caps, err := lcd.CapabilityOf(lcd.RevA)
	require.NoError(t, err)
	th := &theme.Theme{
		Display: theme.Display{Rev: lcd.RevA, Orientation: lcd.Portrait, Brightness: 50},
		Widgets: []theme.Widget{textWidget("a", "stat_a", image.Rect(0, 0, 100, 20))},
	}
	sess := newMockSession(caps)
	e, stop := runEngine(t, th, caps, func() (lcd.Session, error) { return sess, nil })
	defer stop()

	require.Error(t, e.SetBrightness(150))
	require.NoError(t, e.SetBrightness(80))
	require.Eventually(t, func() bool {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		for _, b := range sess.brightness {
			if b == 80 {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	// led is absent on this revision, surfaced immediately
	err = e.SetLed(white)
	require.Error(t, err)
}
