package stats

import (
	"time"

	"github.com/temoto/alive/v2"

	"github.com/panelmon/panelmon/log2"
)

// Poller drives one Source on its own schedule and owns its cache key.
// A failing or slow source never stalls composition: the cache keeps the
// previous value and the failure is written as Unavailable.
type Poller struct {
	alive *alive.Alive
	src   Source
	cache *Cache
	log   *log2.Log

	failing bool // log read failures once per transition
}

func NewPoller(src Source, cache *Cache, log *log2.Log) *Poller {
	return &Poller{
		alive: alive.NewAlive(),
		src:   src,
		cache: cache,
		log:   log,
	}
}

// Run blocks until Stop; start it on a dedicated goroutine.
func (p *Poller) Run() {
	if !p.alive.Add(1) {
		return
	}
	defer p.alive.Done()
	interval := p.src.Interval()
	if interval <= 0 {
		p.poll()
		return
	}
	p.poll()
	tmr := time.NewTicker(interval)
	defer tmr.Stop()
	stopch := p.alive.StopChan()
	for p.alive.IsRunning() {
		select {
		case <-tmr.C:
			p.poll()
		case <-stopch:
			return
		}
	}
}

func (p *Poller) poll() {
	v, err := p.src.Read()
	if err != nil {
		if !p.failing {
			p.log.Errorf("stat key=%s read: %v", p.src.Key(), err)
			p.failing = true
		}
		p.cache.Set(p.src.Key(), None)
		return
	}
	if p.failing {
		p.log.Infof("stat key=%s recovered", p.src.Key())
		p.failing = false
	}
	p.cache.Set(p.src.Key(), v)
}

func (p *Poller) Stop() { p.alive.Stop() }

// Wait returns after Run has observed Stop; used for the short shutdown
// grace period.
func (p *Poller) Wait() <-chan struct{} { return p.alive.WaitChan() }
