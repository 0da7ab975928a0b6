package main

import (
	"go.uber.org/zap"

	"texcollab/internal/session"
	"texcollab/pkg/logger"
)

// logNotifier shows session status on the log.
type logNotifier struct{}

func (logNotifier) SetStatus(message string, kind session.StatusKind) {
	if message == "" {
		return
	}
	logger.Log.Info("Status", zap.String("status", message), zap.String("kind", string(kind)))
}

func (logNotifier) Notify(message string, kind session.NotificationKind) {
	if kind == session.NotifyError {
		logger.Log.Error(message)
		return
	}
	logger.Log.Info(message)
}

func (logNotifier) ShowActiveUsers(peers []session.Peer) {
	logger.Log.Info("Active editors", zap.Strings("names", peerNames(peers)))
}

func peerNames(peers []session.Peer) []string {
	names := make([]string, 0, len(peers))
	for _, p := range peers {
		name := p.Name
		if name == "" {
			name = p.UserID
		}
		names = append(names, name)
	}
	return names
}
