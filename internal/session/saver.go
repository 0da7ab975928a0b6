package session

import (
	"errors"

	"texcollab/internal/document/model"
	"texcollab/pkg/logger"
)

const MsgConflict = "Document was changed by another user. Save again to overwrite it."

// saveIfPending writes the widget content when unsaved edits exist. Only one
// save is in flight at a time; a trigger arriving meanwhile is replayed once
// the running save succeeds. After a failed save it waits for the next edit.
func (s *Session) saveIfPending() {
	if !s.gate.Pending() {
		return
	}
	if s.saving {
		s.resave = true
		return
	}
	s.saving = true

	gen := s.gate.Generation()
	content := s.cfg.Widget.Value()
	var base *int64
	if s.cfg.CompareAndSwap {
		v := s.lastKnownVersion
		base = &v
	}

	s.sched.Cancel(TaskStatusClear)
	s.cfg.Notifier.SetStatus(StatusSaving, StatusBusy)
	s.async(func() func() {
		version, err := s.cfg.Store.Save(s.ctx, s.cfg.DocumentID, content, base)
		return func() { s.finishSave(gen, version, err) }
	})
}

func (s *Session) finishSave(gen uint64, version int64, err error) {
	s.saving = false
	resave := s.resave
	s.resave = false

	if err != nil {
		logger.Sugar.Errorf("Failed to save document %s: %v", s.cfg.DocumentID, err)
		if resave {
			logger.Sugar.Debugf("Document %s: dropping queued save until the next edit", s.cfg.DocumentID)
		}
		s.cfg.Notifier.SetStatus(StatusSaveError, StatusError)
		if errors.Is(err, model.ErrVersionConflict) {
			s.cfg.Notifier.Notify(MsgConflict, NotifyError)
			s.adoptRemoteBase()
			return
		}
		s.cfg.Notifier.Notify(failureMessage(err, MsgSaveFailed), NotifyError)
		return
	}

	s.lastKnownVersion = version
	if !s.gate.ReleaseAfterLocalSave(gen) {
		logger.Sugar.Debugf("Document %s edited while saving, keeping edits pending", s.cfg.DocumentID)
	}
	s.cfg.Notifier.SetStatus(StatusSaved, StatusOK)
	s.sched.After(TaskStatusClear, savedStatusLinger, func() {
		s.cfg.Notifier.SetStatus("", StatusNone)
	})

	if resave {
		s.saveIfPending()
	}
}

// adoptRemoteBase moves the compare-and-swap base to the stored version
// without touching the widget, so the next save overwrites deliberately.
func (s *Session) adoptRemoteBase() {
	s.async(func() func() {
		snap, err := s.cfg.Store.Load(s.ctx, s.cfg.DocumentID)
		return func() {
			if err != nil {
				logger.Sugar.Warnf("Failed to refresh version of document %s after conflict: %v", s.cfg.DocumentID, err)
				return
			}
			if snap.Version > s.lastKnownVersion {
				s.lastKnownVersion = snap.Version
			}
		}
	})
}
