package session

import "texcollab/pkg/logger"

// poll fetches the stored document unless local edits are pending. The fetch
// is never cancelled: its result is applied whenever it arrives, even if the
// user started editing in the meantime.
func (s *Session) poll() {
	if !s.gate.TryAcquireForRemoteApply() {
		return
	}
	s.async(func() func() {
		snap, err := s.cfg.Store.Load(s.ctx, s.cfg.DocumentID)
		return func() { s.applyRemote(snap, err) }
	})
}

func (s *Session) applyRemote(snap Snapshot, err error) {
	if err != nil {
		logger.Sugar.Warnf("Sync check for document %s failed: %v", s.cfg.DocumentID, err)
		return
	}
	if snap.Version <= s.lastKnownVersion {
		return
	}

	cursor := s.cfg.Widget.Cursor()
	s.cfg.Widget.SetValue(snap.Content)
	s.cfg.Widget.SetCursor(ClampPosition(snap.Content, cursor))
	s.lastKnownVersion = snap.Version
	if snap.Title != "" {
		s.title = snap.Title
	}
	s.refreshPreview()
	s.cfg.Notifier.Notify(MsgRemoteUpdated, NotifySuccess)
}
