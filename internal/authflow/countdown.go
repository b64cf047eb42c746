package authflow

import (
	"sync"
	"time"
)

// Scheduler abstracts timer creation so flows can be driven by a fake
// clock in tests. AfterFunc mirrors time.AfterFunc; the returned stop
// function mirrors (*time.Timer).Stop.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// NewScheduler returns a wall-clock Scheduler.
func NewScheduler() Scheduler {
	return realScheduler{}
}

// countdown ticks once per second toward zero. It gates resends only;
// the stored code_expires_at stays authoritative for code validity.
type countdown struct {
	mu        sync.Mutex
	sched     Scheduler
	remaining int
	stop      func() bool
	done      bool
}

func startCountdown(sched Scheduler, seconds int) *countdown {
	c := &countdown{sched: sched, remaining: seconds}
	c.mu.Lock()
	c.schedule()
	c.mu.Unlock()
	return c
}

func (c *countdown) schedule() {
	c.stop = c.sched.AfterFunc(time.Second, c.tick)
}

func (c *countdown) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done || c.remaining == 0 {
		return
	}
	c.remaining--
	if c.remaining > 0 {
		c.schedule()
	}
}

// Remaining returns the seconds left before resend unlocks.
func (c *countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// cancel stops future ticks; a discarded attempt must never be updated
// by a timer that outlived it.
func (c *countdown) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = true
	if c.stop != nil {
		c.stop()
	}
}
