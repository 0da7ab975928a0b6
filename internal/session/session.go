// Package session keeps one editor widget in sync with a stored document. It
// owns the debounced save, the remote-update poll and the presence heartbeat,
// all driven from a single Scheduler loop.
package session

import (
	"context"
	"errors"
	"time"

	"texcollab/internal/document/model"
	"texcollab/internal/markup"
	"texcollab/pkg/logger"
)

const (
	DefaultSyncDelay        = 2 * time.Second
	DefaultPollInterval     = 5 * time.Second
	DefaultPresenceInterval = 10 * time.Second

	savedStatusLinger = 2 * time.Second
)

// Task names used on the scheduler.
const (
	TaskSave        = "save"
	TaskPoll        = "poll"
	TaskPresence    = "presence"
	TaskStatusClear = "status-clear"
)

var ErrClosed = errors.New("session closed")

type Config struct {
	DocumentID string
	UserID     string

	Store    DocumentStore
	Presence PresenceService
	Widget   Widget
	Preview  Preview
	Notifier Notifier

	Transformer *markup.Transformer
	Clock       Clock

	SyncDelay        time.Duration
	PollInterval     time.Duration
	PresenceInterval time.Duration

	// DisableAutoSave leaves saving to SaveNow.
	DisableAutoSave bool
	// CompareAndSwap sends the last known version with every save so the
	// store rejects writes over content this session never saw.
	CompareAndSwap bool
}

type Session struct {
	cfg   Config
	sched *Scheduler

	ctx    context.Context
	cancel context.CancelFunc

	// Loop-owned.
	gate             EditGate
	lastKnownVersion int64
	title            string
	saving           bool
	resave           bool
}

func New(cfg Config) (*Session, error) {
	if cfg.DocumentID == "" {
		return nil, errors.New("session: document id is required")
	}
	if cfg.Store == nil || cfg.Widget == nil {
		return nil, errors.New("session: store and widget are required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.Preview == nil {
		cfg.Preview = nopPreview{}
	}
	if cfg.Transformer == nil {
		cfg.Transformer = markup.New()
	}
	if cfg.SyncDelay <= 0 {
		cfg.SyncDelay = DefaultSyncDelay
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PresenceInterval <= 0 {
		cfg.PresenceInterval = DefaultPresenceInterval
	}
	return &Session{cfg: cfg, sched: NewScheduler(cfg.Clock)}, nil
}

// Start loads the document, announces presence and arms the poll and presence
// tasks. Network calls inherit ctx.
func (s *Session) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.sched.Start()
	s.cfg.Widget.OnChange(func() {
		s.sched.Post(s.onLocalEdit)
	})
	s.sched.Post(func() {
		s.cfg.Notifier.SetStatus(StatusLoading, StatusBusy)
		s.load()
		if s.cfg.Presence != nil {
			s.heartbeat()
			s.sched.Every(TaskPresence, s.cfg.PresenceInterval, s.heartbeat)
		}
		s.sched.Every(TaskPoll, s.cfg.PollInterval, s.poll)
	})
	logger.Sugar.Infof("Editor session started for document %s", s.cfg.DocumentID)
}

// Close cancels every pending task and stops the loop. Responses still in
// flight are dropped.
func (s *Session) Close() {
	s.sched.Shutdown()
	if s.cancel != nil {
		s.cancel()
	}
	logger.Sugar.Infof("Editor session closed for document %s", s.cfg.DocumentID)
}

// SaveNow saves pending edits immediately instead of waiting for the quiet
// window.
func (s *Session) SaveNow() error {
	if !s.sched.Post(func() {
		s.sched.Cancel(TaskSave)
		s.saveIfPending()
	}) {
		return ErrClosed
	}
	return nil
}

// LastKnownVersion is the newest store version this session has seen.
func (s *Session) LastKnownVersion() int64 {
	var v int64
	s.sched.Call(func() { v = s.lastKnownVersion })
	return v
}

// EditPending reports whether local edits are waiting to be saved.
func (s *Session) EditPending() bool {
	var pending bool
	s.sched.Call(func() { pending = s.gate.Pending() })
	return pending
}

// Title is the document title from the last successful load.
func (s *Session) Title() string {
	var title string
	s.sched.Call(func() { title = s.title })
	return title
}

// PendingTasks lists the armed scheduler tasks.
func (s *Session) PendingTasks() []string {
	return s.sched.Pending()
}

func (s *Session) onLocalEdit() {
	s.gate.MarkLocalEdit()
	s.refreshPreview()
	if !s.cfg.DisableAutoSave {
		s.sched.After(TaskSave, s.cfg.SyncDelay, s.saveIfPending)
	}
}

func (s *Session) refreshPreview() {
	s.cfg.Preview.Show(s.cfg.Transformer.Transform(s.cfg.Widget.Value()))
}

// async runs call off the loop and hands its outcome back to the loop.
func (s *Session) async(call func() func()) {
	go func() {
		s.sched.Post(call())
	}()
}

func (s *Session) load() {
	s.async(func() func() {
		snap, err := s.cfg.Store.Load(s.ctx, s.cfg.DocumentID)
		return func() { s.finishLoad(snap, err) }
	})
}

func (s *Session) finishLoad(snap Snapshot, err error) {
	if err != nil {
		logger.Sugar.Errorf("Failed to load document %s: %v", s.cfg.DocumentID, err)
		s.cfg.Notifier.SetStatus("", StatusNone)
		s.cfg.Notifier.Notify(failureMessage(err, MsgLoadFailed), NotifyError)
		s.cfg.Widget.SetValue(markup.DefaultTemplate)
		s.lastKnownVersion = 0
		s.refreshPreview()
		return
	}

	content := snap.Content
	if content == "" {
		content = markup.DefaultTemplate
	}
	s.cfg.Widget.SetValue(content)
	s.lastKnownVersion = snap.Version
	s.title = snap.Title
	s.refreshPreview()
	s.cfg.Notifier.SetStatus(StatusLoaded, StatusOK)
}

func failureMessage(err error, fallback string) string {
	if errors.Is(err, model.ErrPermissionDenied) {
		return MsgDenied
	}
	return fallback
}
