// Package engine ties the scheduler, compositor and transmitter together:
// theme in, correctly ordered device frames out.
package engine

import (
	"image/color"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/panelmon/panelmon/canvas"
	"github.com/panelmon/panelmon/hardware/lcd"
	"github.com/panelmon/panelmon/log2"
	"github.com/panelmon/panelmon/stats"
	"github.com/panelmon/panelmon/theme"
)

// stop grace period for pollers stuck in slow sensor reads
const stopGrace = 500 * time.Millisecond

// retry delay when the transmitter is busy and dirty regions are pending
const busyRetry = 50 * time.Millisecond

type Config struct {
	Theme   *theme.Theme
	Caps    *lcd.Capability
	Sources []stats.Source
	Log     *log2.Log

	// Connect overrides session creation, for tests.
	Connect func() (lcd.Session, error)
}

// engineOp is a runtime control request, merged into the next batch so
// only the transmitter goroutine ever touches the session.
type engineOp struct {
	orient     *lcd.Orientation
	brightness *uint8
	led        *color.RGBA
	power      *bool
}

func (op *engineOp) any() bool {
	return op.orient != nil || op.brightness != nil || op.led != nil || op.power != nil
}

func (op *engineOp) merge(in engineOp) {
	if in.orient != nil {
		op.orient = in.orient
	}
	if in.brightness != nil {
		op.brightness = in.brightness
	}
	if in.led != nil {
		op.led = in.led
	}
	if in.power != nil {
		op.power = in.power
	}
}

type Engine struct {
	alive   *alive.Alive
	log     *log2.Log
	th      *theme.Theme
	caps    *lcd.Capability
	cache   *stats.Cache
	pollers []*stats.Poller

	cv    *canvas.Canvas
	comp  *Compositor
	sched *Scheduler
	tx    *Transmitter

	orient  lcd.Orientation
	batchCh chan *Batch
	opsCh   chan engineOp
}

func New(cfg Config) (*Engine, error) {
	if cfg.Theme == nil || cfg.Caps == nil {
		return nil, errors.Errorf("engine: theme and capability are required")
	}
	log := cfg.Log
	connect := cfg.Connect
	if connect == nil {
		opt := lcd.Options{
			Port: cfg.Theme.Display.Port,
			Baud: cfg.Theme.Display.Baud,
			Rev:  cfg.Theme.Display.Rev,
		}
		connect = func() (lcd.Session, error) { return lcd.Connect(opt, log) }
	}

	w, h := cfg.Caps.Size(cfg.Theme.Display.Orientation)
	cv := canvas.New(w, h)
	e := &Engine{
		alive:   alive.NewAlive(),
		log:     log,
		th:      cfg.Theme,
		caps:    cfg.Caps,
		cache:   stats.NewCache(),
		cv:      cv,
		orient:  cfg.Theme.Display.Orientation,
		batchCh: make(chan *Batch, 1),
		opsCh:   make(chan engineOp, 4),
	}
	e.comp = NewCompositor(cfg.Theme, cv, log)
	e.tx = NewTransmitter(cfg.Caps, cfg.Theme.Display, connect, log)
	e.tx.stop = e.alive.StopChan()
	for _, src := range cfg.Sources {
		e.pollers = append(e.pollers, stats.NewPoller(src, e.cache, log))
	}
	return e, nil
}

// Cache exposes the stat cache for sources managed outside the engine.
func (e *Engine) Cache() *stats.Cache { return e.cache }

// Run blocks until Stop. Pollers, the compose loop and the transmit loop
// each run on their own goroutine; Run's caller owns the lifecycle.
func (e *Engine) Run() error {
	if !e.alive.Add(1) {
		return errors.Errorf("engine: already stopped")
	}
	for _, p := range e.pollers {
		go p.Run()
	}
	go e.txLoop()
	e.loop()
	e.alive.Done()
	<-e.alive.WaitChan()

	for _, p := range e.pollers {
		p.Stop()
	}
	grace := time.After(stopGrace)
	for _, p := range e.pollers {
		select {
		case <-p.Wait():
		case <-grace:
		}
	}
	return nil
}

func (e *Engine) Stop() { e.alive.Stop() }

func (e *Engine) SetBrightness(pct uint8) error {
	if pct > 100 {
		return errors.NotValidf("brightness=%d", pct)
	}
	e.sendOp(engineOp{brightness: &pct})
	return nil
}

func (e *Engine) SetOrientation(o lcd.Orientation) error {
	if o > lcd.ReverseLandscape {
		return errors.NotValidf("orientation=%d", o)
	}
	e.sendOp(engineOp{orient: &o})
	return nil
}

func (e *Engine) SetLed(c color.RGBA) error {
	if !e.caps.Led {
		return errors.NotSupportedf("led on revision=%s", e.caps.Revision)
	}
	e.sendOp(engineOp{led: &c})
	return nil
}

func (e *Engine) Power(on bool) {
	e.sendOp(engineOp{power: &on})
}

func (e *Engine) sendOp(op engineOp) {
	select {
	case e.opsCh <- op:
	case <-e.alive.StopChan():
	}
}

// loop is the compose side: tick the scheduler, render due widgets,
// hand batches to the transmit goroutine without ever blocking on it.
func (e *Engine) loop() {
	e.sched = NewScheduler(e.th.Widgets, time.Now())
	e.comp.RenderAll(e.cache.Snapshot())

	pending := &engineOp{}
	timer := time.NewTimer(0)
	defer timer.Stop()
	stopch := e.alive.StopChan()
	for {
		select {
		case <-stopch:
			return
		case op := <-e.opsCh:
			e.applyOp(op, pending)
		case now := <-timer.C:
			if due := e.sched.Tick(now); len(due) > 0 {
				e.comp.RenderDue(due, e.cache.Snapshot())
			}
		}
		e.trySend(pending)

		d, ok := e.sched.NextWake(time.Now())
		if !ok {
			d = time.Hour
		}
		if (len(e.cv.Dirty()) > 0 || pending.any() || e.tx.NeedFull()) && d > busyRetry {
			d = busyRetry
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)
	}
}

// applyOp handles control requests on the compose side. Orientation swaps
// the canvas when the aspect changes and forces a full re-render.
func (e *Engine) applyOp(op engineOp, pending *engineOp) {
	if op.orient != nil {
		o := *op.orient
		if o == e.orient {
			op.orient = nil
		} else {
			e.orient = o
			w, h := e.caps.Size(o)
			if b := e.cv.Bounds(); b.Dx() != w || b.Dy() != h {
				e.cv = canvas.New(w, h)
				e.comp.SetCanvas(e.cv)
			}
			e.comp.RenderAll(e.cache.Snapshot())
		}
	}
	pending.merge(op)
}

// trySend builds a batch from accumulated dirty regions plus pending ops
// and offers it to the transmit goroutine. A busy transmitter keeps state
// accumulated for the next attempt.
func (e *Engine) trySend(pending *engineOp) {
	dirty := e.cv.Dirty()
	needFull := !e.caps.PartialUpdate || e.tx.NeedFull() || pending.orient != nil
	if len(dirty) == 0 && !pending.any() && !e.tx.NeedFull() {
		return
	}

	b := &Batch{
		Orient:     pending.orient,
		Brightness: pending.brightness,
		Led:        pending.led,
		Power:      pending.power,
	}
	screen := e.cv.Bounds()
	if needFull {
		b.Full = true
		b.Regions = []Region{{Rect: screen, Pix: e.cv.CopyRegion(screen)}}
	} else {
		for _, r := range canvas.MergeAdjacent(dirty) {
			b.Regions = append(b.Regions, Region{Rect: r, Pix: e.cv.CopyRegion(r)})
		}
	}

	select {
	case e.batchCh <- b:
		e.cv.ClearDirty()
		*pending = engineOp{}
	default:
	}
}

// txLoop is the transmit side, sole owner of the protocol session.
func (e *Engine) txLoop() {
	if !e.alive.Add(1) {
		return
	}
	defer e.alive.Done()
	defer e.tx.Close()
	stopch := e.alive.StopChan()
	for {
		select {
		case <-stopch:
			return
		case b := <-e.batchCh:
			if err := e.tx.Flush(b); err != nil {
				e.log.Debugf("engine flush: %v", err)
			}
		}
	}
}
