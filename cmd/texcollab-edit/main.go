// Command texcollab-edit edits one shared LaTeX document through a local
// file. Saving the file pushes the change after the quiet window; edits from
// other users are written back into it, and preview.html is refreshed on
// every change.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"texcollab/internal/client"
	"texcollab/internal/session"
	"texcollab/internal/widget"
	"texcollab/pkg/logger"
)

func main() {
	baseURL := flag.String("base-url", envOrDefault("TEXCOLLAB_BASE_URL", "http://127.0.0.1:8080"), "document API base URL")
	token := flag.String("token", strings.TrimSpace(os.Getenv("TEXCOLLAB_TOKEN")), "bearer token")
	docID := flag.String("document", strings.TrimSpace(os.Getenv("TEXCOLLAB_DOCUMENT")), "document ID")
	file := flag.String("file", envOrDefault("TEXCOLLAB_FILE", "document.tex"), "local file bound to the document")
	previewPath := flag.String("preview", envOrDefault("TEXCOLLAB_PREVIEW", "preview.html"), "HTML preview output")
	syncDelay := flag.Duration("sync-delay", durationEnv("TEXCOLLAB_SYNC_DELAY", session.DefaultSyncDelay), "quiet window before saving")
	pollInterval := flag.Duration("poll-interval", durationEnv("TEXCOLLAB_POLL_INTERVAL", session.DefaultPollInterval), "remote update poll interval")
	presenceInterval := flag.Duration("presence-interval", durationEnv("TEXCOLLAB_PRESENCE_INTERVAL", session.DefaultPresenceInterval), "presence heartbeat interval")
	timeout := flag.Duration("timeout", durationEnv("TEXCOLLAB_TIMEOUT", 15*time.Second), "per-request timeout")
	cas := flag.Bool("cas", os.Getenv("TEXCOLLAB_CAS") == "true", "reject saves over versions this editor never saw")
	logLevel := flag.String("log-level", envOrDefault("TEXCOLLAB_LOG_LEVEL", "info"), "log level")
	flag.Parse()

	logger.Init(*logLevel)
	defer logger.Sync()

	if *token == "" {
		logger.Sugar.Fatal("token is required (--token or TEXCOLLAB_TOKEN)")
	}
	if *docID == "" {
		logger.Sugar.Fatal("document is required (--document or TEXCOLLAB_DOCUMENT)")
	}
	userID, err := userFromToken(*token)
	if err != nil {
		logger.Sugar.Fatalf("Unreadable token: %v", err)
	}

	fileWidget, err := widget.OpenFile(*file)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer fileWidget.Close()

	api := client.New(*baseURL, *token, &http.Client{Timeout: *timeout})
	s, err := session.New(session.Config{
		DocumentID:       *docID,
		UserID:           userID,
		Store:            api,
		Presence:         api,
		Widget:           fileWidget,
		Preview:          &widget.HTMLPreview{Path: *previewPath, Title: *docID},
		Notifier:         logNotifier{},
		SyncDelay:        *syncDelay,
		PollInterval:     *pollInterval,
		PresenceInterval: *presenceInterval,
		CompareAndSwap:   *cas,
	})
	if err != nil {
		logger.Sugar.Fatalf("Failed to start session: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Start(rootCtx)
	logger.Sugar.Infof("Editing document %s through %s", *docID, fileWidget.Path())

	<-rootCtx.Done()
	pending := s.EditPending()
	s.Close()
	if pending {
		logger.Sugar.Warnf("Stopped with unsaved edits in %s", fileWidget.Path())
	}
}

// userFromToken reads the subject claim without verifying the signature. The
// server verifies; the editor only needs to know which presence entry is its
// own.
func userFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no sub claim")
	}
	return sub, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		logger.Sugar.Warnf("invalid %s=%q, using fallback %s", name, raw, fallback)
		return fallback
	}
	return value
}
