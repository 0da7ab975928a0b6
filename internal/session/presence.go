package session

import "texcollab/pkg/logger"

// heartbeat announces this editor and shows everyone else who is active.
// Failures are only logged; the next tick tries again.
func (s *Session) heartbeat() {
	s.async(func() func() {
		peers, err := s.cfg.Presence.Heartbeat(s.ctx, s.cfg.DocumentID)
		return func() {
			if err != nil {
				logger.Sugar.Warnf("Presence heartbeat for document %s failed: %v", s.cfg.DocumentID, err)
				return
			}
			s.cfg.Notifier.ShowActiveUsers(others(peers, s.cfg.UserID))
		}
	})
}

func others(peers []Peer, self string) []Peer {
	out := make([]Peer, 0, len(peers))
	for _, p := range peers {
		if p.UserID == self {
			continue
		}
		out = append(out, p)
	}
	return out
}
