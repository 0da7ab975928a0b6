package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"texcollab/internal/document/model"
)

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock *manualClock
	at    time.Time
	fn    func()
	done  bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.done
	t.done = true
	return wasActive
}

// Advance moves time forward and fires every timer that came due, in order.
// Timers armed by those callbacks are measured from the new time.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

type fakeStore struct {
	mu        sync.Mutex
	content   string
	version   int64
	title     string
	loadErr   error
	saveErr   error
	loadBlock chan struct{}
	saveBlock chan struct{}
	loads     int
	saveCalls int
	saves     []string
}

func newFakeStore(content string, version int64) *fakeStore {
	return &fakeStore{content: content, version: version, title: "Thesis"}
}

func (f *fakeStore) Load(ctx context.Context, docID string) (Snapshot, error) {
	f.mu.Lock()
	f.loads++
	snap := Snapshot{Content: f.content, Version: f.version, Title: f.title}
	err := f.loadErr
	block := f.loadBlock
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (f *fakeStore) Save(ctx context.Context, docID, content string, base *int64) (int64, error) {
	f.mu.Lock()
	f.saveCalls++
	block := f.saveBlock
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	if base != nil && *base != f.version {
		return 0, model.ErrVersionConflict
	}
	f.version++
	f.content = content
	f.saves = append(f.saves, content)
	return f.version, nil
}

// write simulates another editor saving.
func (f *fakeStore) write(content string, version int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = content
	f.version = version
}

func (f *fakeStore) set(fn func(f *fakeStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeStore) stats() (loads, saveCalls int, saves []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.saveCalls, append([]string(nil), f.saves...)
}

type fakePresence struct {
	mu    sync.Mutex
	peers []Peer
	err   error
	calls int
}

func (p *fakePresence) Heartbeat(ctx context.Context, docID string) ([]Peer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.peers, p.err
}

func (p *fakePresence) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeWidget struct {
	mu       sync.Mutex
	value    string
	cursor   Position
	listener func()
}

func (w *fakeWidget) Value() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

func (w *fakeWidget) SetValue(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = text
}

func (w *fakeWidget) Cursor() Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

func (w *fakeWidget) SetCursor(p Position) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursor = p
}

func (w *fakeWidget) OnChange(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listener = fn
}

// Type replaces the content the way a user edit would.
func (w *fakeWidget) Type(text string) {
	w.mu.Lock()
	w.value = text
	listener := w.listener
	w.mu.Unlock()
	if listener != nil {
		listener()
	}
}

type recorder struct {
	mu            sync.Mutex
	statuses      []string
	notifications []string
	peers         []Peer
	fragment      string
}

func (r *recorder) SetStatus(message string, kind StatusKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, message)
}

func (r *recorder) Notify(message string, kind NotificationKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, message)
}

func (r *recorder) ShowActiveUsers(peers []Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers = peers
}

func (r *recorder) Show(fragment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fragment = fragment
}

func (r *recorder) snapshot() (statuses, notifications []string, peers []Peer, fragment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...), append([]string(nil), r.notifications...), r.peers, r.fragment
}
