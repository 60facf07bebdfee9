package runner

import (
	"log"
	"time"
)

// spinThreshold is how close to a deadline the frame pacer stops sleeping and
// starts spinning; OS sleeps routinely overshoot by about a millisecond.
const spinThreshold = 2 * time.Millisecond

// clock abstracts wall time so pacing can be tested deterministically.
type clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// tickPacer releases one tick group per interval. The schedule advances by a
// fixed step from the previous trigger, and is re-anchored to now whenever
// the worker falls more than one interval behind, so lag never accumulates
// beyond a single group.
type tickPacer struct {
	clk      clock
	interval time.Duration
	next     time.Time
}

func newTickPacer(clk clock, interval time.Duration) *tickPacer {
	return &tickPacer{clk: clk, interval: interval, next: clk.Now()}
}

// wait spins until the next group is due.
func (p *tickPacer) wait() {
	now := p.clk.Now()
	for now.Before(p.next) {
		now = p.clk.Now()
	}
	p.next = p.next.Add(p.interval)
	if now.Sub(p.next) > p.interval {
		p.next = now
	}
}

// framePacer holds each frame to the time budget of the core's refresh rate.
type framePacer struct {
	clk       clock
	frameTime time.Duration
	rate      float64
	next      time.Time
}

func newFramePacer(clk clock) *framePacer {
	return &framePacer{clk: clk, frameTime: 16 * time.Millisecond, next: clk.Now()}
}

// setRefreshRate recomputes the frame budget when rate changed and reports
// whether it did.
func (p *framePacer) setRefreshRate(rate float64) bool {
	if rate == p.rate || rate <= 0 {
		return false
	}
	p.rate = rate
	p.frameTime = time.Duration(float64(time.Second) / rate)
	log.Printf("refresh rate set to %.2f Hz (%v per frame)", rate, p.frameTime)
	return true
}

// wait sleeps, then spins, until the frame budget has elapsed.
func (p *framePacer) wait() {
	for {
		remaining := p.next.Sub(p.clk.Now())
		if remaining <= 0 {
			break
		}
		if remaining > spinThreshold {
			p.clk.Sleep(remaining - spinThreshold)
		}
	}
	p.next = p.clk.Now().Add(p.frameTime)
}
