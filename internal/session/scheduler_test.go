package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runLog struct {
	mu   sync.Mutex
	runs []string
}

func (l *runLog) add(name string) func() {
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.runs = append(l.runs, name)
	}
}

func (l *runLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.runs...)
}

func startScheduler(t *testing.T) (*Scheduler, *manualClock) {
	t.Helper()
	clock := newManualClock()
	s := NewScheduler(clock)
	s.Start()
	t.Cleanup(s.Shutdown)
	return s, clock
}

func TestSchedulerAfterRunsOnce(t *testing.T) {
	s, clock := startScheduler(t)
	var log runLog

	s.Call(func() { s.After("save", time.Second, log.add("save")) })
	assert.Equal(t, []string{"save"}, s.Pending())

	clock.Advance(999 * time.Millisecond)
	s.Call(func() {})
	assert.Empty(t, log.get())

	clock.Advance(time.Millisecond)
	s.Call(func() {})
	assert.Equal(t, []string{"save"}, log.get())
	assert.Empty(t, s.Pending())

	clock.Advance(time.Hour)
	s.Call(func() {})
	assert.Len(t, log.get(), 1)
}

func TestSchedulerRearmReplacesTask(t *testing.T) {
	s, clock := startScheduler(t)
	var log runLog

	s.Call(func() { s.After("save", time.Second, log.add("first")) })
	clock.Advance(500 * time.Millisecond)
	s.Call(func() { s.After("save", time.Second, log.add("second")) })

	clock.Advance(700 * time.Millisecond)
	s.Call(func() {})
	assert.Empty(t, log.get())

	clock.Advance(300 * time.Millisecond)
	s.Call(func() {})
	assert.Equal(t, []string{"second"}, log.get())
}

func TestSchedulerEveryRepeatsUntilCancelled(t *testing.T) {
	s, clock := startScheduler(t)
	var log runLog

	s.Call(func() { s.Every("poll", time.Second, log.add("poll")) })
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		s.Call(func() {})
	}
	assert.Len(t, log.get(), 3)
	assert.Equal(t, []string{"poll"}, s.Pending())

	s.Call(func() { s.Cancel("poll") })
	clock.Advance(time.Second)
	s.Call(func() {})
	assert.Len(t, log.get(), 3)
	assert.Empty(t, s.Pending())
}

func TestSchedulerTasksRunInPostOrder(t *testing.T) {
	s, _ := startScheduler(t)
	var log runLog

	for _, name := range []string{"a", "b", "c"} {
		require.True(t, s.Post(log.add(name)))
	}
	s.Call(func() {})
	assert.Equal(t, []string{"a", "b", "c"}, log.get())
}

func TestSchedulerShutdownDropsWork(t *testing.T) {
	s, clock := startScheduler(t)
	var log runLog

	s.Call(func() {
		s.After("save", time.Second, log.add("save"))
		s.Every("poll", time.Second, log.add("poll"))
	})
	s.Shutdown()
	s.Shutdown()

	clock.Advance(time.Minute)
	assert.False(t, s.Post(log.add("late")))
	assert.False(t, s.Call(func() {}))
	assert.Nil(t, s.Pending())
	assert.Empty(t, log.get())
}

func TestSchedulerShutdownWithoutStart(t *testing.T) {
	s := NewScheduler(nil)
	s.Shutdown()
	assert.False(t, s.Post(func() {}))
}

func TestSchedulerRealClock(t *testing.T) {
	s := NewScheduler(RealClock)
	s.Start()
	defer s.Shutdown()

	fired := make(chan struct{})
	s.Call(func() { s.After("once", 5*time.Millisecond, func() { close(fired) }) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}
