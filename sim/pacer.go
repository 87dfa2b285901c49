package sim

import (
	"sync"
	"time"
)

// RealTimePacer is a hook that holds the engine back before each event until
// the wall clock has caught up with the event time. Attached to an engine, it
// makes simulated time advance no faster than real time, which bridged media
// need to observe the configured periods.
type RealTimePacer struct {
	// Scale converts simulated seconds to wall seconds. 1 means real time,
	// 0.5 means twice as fast.
	Scale float64

	lock    sync.Mutex
	started bool
	origin  time.Time
	now     func() time.Time
	sleep   func(time.Duration)
}

// NewRealTimePacer creates a pacer running at real time.
func NewRealTimePacer() *RealTimePacer {
	return &RealTimePacer{
		Scale: 1,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Func delays before-event hooks until the wall clock reaches the event time.
func (p *RealTimePacer) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	p.lock.Lock()
	if !p.started {
		p.started = true
		p.origin = p.now().Add(-p.wallOffset(evt.Time()))
	}
	target := p.origin.Add(p.wallOffset(evt.Time()))
	p.lock.Unlock()

	wait := target.Sub(p.now())
	if wait > 0 {
		p.sleep(wait)
	}
}

func (p *RealTimePacer) wallOffset(t VTimeInSec) time.Duration {
	return time.Duration(float64(t) * p.Scale * float64(time.Second))
}
