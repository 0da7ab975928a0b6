package session

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall time so tests can drive the scheduler by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is backed by the time package.
var RealClock Clock = realClock{}

type scheduledTask struct {
	timer Timer
	gen   uint64
}

// Scheduler runs every piece of session state on one goroutine. Timers,
// widget events and network results are all posted onto that loop and run
// one at a time in arrival order, so session fields need no locking.
//
// After, Every and Cancel must only be called from the loop itself.
type Scheduler struct {
	clock Clock
	tasks chan func()

	// Loop-owned.
	timers map[string]scheduledTask
	gen    uint64

	startOnce sync.Once
	stopOnce  sync.Once
	started   chan struct{}
	done      chan struct{}
	stopped   chan struct{}
}

func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{
		clock:   clock,
		tasks:   make(chan func()),
		timers:  make(map[string]scheduledTask),
		started: make(chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		close(s.started)
		go s.run()
	})
}

func (s *Scheduler) run() {
	defer close(s.stopped)
	for {
		select {
		case fn := <-s.tasks:
			fn()
		case <-s.done:
			for name, task := range s.timers {
				task.timer.Stop()
				delete(s.timers, name)
			}
			return
		}
	}
}

// Post queues fn onto the loop. It reports false once the scheduler is shut
// down, in which case fn never runs.
func (s *Scheduler) Post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.tasks <- fn:
		return true
	case <-s.done:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish. It must not be used
// from inside the loop.
func (s *Scheduler) Call(fn func()) bool {
	finished := make(chan struct{})
	if !s.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-s.stopped:
		return false
	}
}

// After arms a named one-shot task, replacing any task of the same name.
func (s *Scheduler) After(name string, d time.Duration, fn func()) {
	s.arm(name, d, fn, false)
}

// Every arms a named recurring task, replacing any task of the same name.
// The first run happens after one interval.
func (s *Scheduler) Every(name string, d time.Duration, fn func()) {
	s.arm(name, d, fn, true)
}

func (s *Scheduler) arm(name string, d time.Duration, fn func(), repeat bool) {
	s.Cancel(name)
	s.gen++
	gen := s.gen

	var fire func()
	fire = func() {
		s.Post(func() {
			// A timer that fired after being cancelled or replaced is stale.
			task, ok := s.timers[name]
			if !ok || task.gen != gen {
				return
			}
			if repeat {
				s.timers[name] = scheduledTask{timer: s.clock.AfterFunc(d, fire), gen: gen}
			} else {
				delete(s.timers, name)
			}
			fn()
		})
	}
	s.timers[name] = scheduledTask{timer: s.clock.AfterFunc(d, fire), gen: gen}
}

// Cancel stops the named task if it is pending.
func (s *Scheduler) Cancel(name string) {
	if task, ok := s.timers[name]; ok {
		task.timer.Stop()
		delete(s.timers, name)
	}
}

func (s *Scheduler) pending() []string {
	names := make([]string, 0, len(s.timers))
	for name := range s.timers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pending lists armed task names in sorted order. It is empty after Shutdown.
func (s *Scheduler) Pending() []string {
	var names []string
	if !s.Call(func() { names = s.pending() }) {
		return nil
	}
	return names
}

// Now reads the scheduler clock.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Shutdown cancels every pending task and stops the loop. Work already
// running finishes first; anything posted afterwards is dropped.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() { close(s.done) })
	select {
	case <-s.started:
		<-s.stopped
	default:
	}
}
