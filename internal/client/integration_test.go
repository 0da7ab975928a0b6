package client

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texcollab/internal/document/model"
	"texcollab/internal/document/repository"
	"texcollab/internal/document/service"
	"texcollab/internal/presence"
	"texcollab/internal/session"
	"texcollab/router"
)

var integrationSecret = []byte("integration-secret")

type memWidget struct {
	mu       sync.Mutex
	value    string
	cursor   session.Position
	listener func()
}

func (w *memWidget) Value() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

func (w *memWidget) SetValue(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = text
}

func (w *memWidget) Cursor() session.Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

func (w *memWidget) SetCursor(p session.Position) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursor = p
}

func (w *memWidget) OnChange(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listener = fn
}

func (w *memWidget) Type(text string) {
	w.mu.Lock()
	w.value = text
	listener := w.listener
	w.mu.Unlock()
	listener()
}

func tokenFor(t *testing.T, userID, name string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"name": name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(integrationSecret)
	require.NoError(t, err)
	return token
}

func startEditor(t *testing.T, baseURL, userID, name string) (*session.Session, *memWidget) {
	t.Helper()
	c := New(baseURL, tokenFor(t, userID, name), nil)
	w := &memWidget{}
	s, err := session.New(session.Config{
		DocumentID:       "42",
		UserID:           userID,
		Store:            c,
		Presence:         c,
		Widget:           w,
		SyncDelay:        10 * time.Millisecond,
		PollInterval:     20 * time.Millisecond,
		PresenceInterval: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	s.Start(context.Background())
	t.Cleanup(s.Close)
	return s, w
}

func TestEditorsConvergeThroughTheAPI(t *testing.T) {
	svc := service.NewDocumentService(repository.NewMemoryDocumentRepository(), presence.NewMemoryRegistry(presence.DefaultTTL))
	ctx := context.Background()
	_, err := svc.CreateDocument(ctx, "42", "alice", "Paper", `\begin{document}start\end{document}`)
	require.NoError(t, err)
	require.NoError(t, svc.GrantAccess(ctx, "42", "bob", model.RoleWriter))

	server := httptest.NewServer(router.Setup(svc, integrationSecret))
	defer server.Close()

	alice, aliceWidget := startEditor(t, server.URL, "alice", "Alice")
	bob, bobWidget := startEditor(t, server.URL, "bob", "Bob")
	require.Eventually(t, func() bool {
		return aliceWidget.Value() != "" && bobWidget.Value() != ""
	}, 2*time.Second, 5*time.Millisecond)

	edited := `\begin{document}from \textbf{alice} $\alpha$\end{document}`
	aliceWidget.Type(edited)

	require.Eventually(t, func() bool { return alice.LastKnownVersion() == 1 && !alice.EditPending() }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return bobWidget.Value() == edited }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), bob.LastKnownVersion())
	assert.Equal(t, "Paper", bob.Title())

	doc, err := svc.Repo.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, edited, doc.Content)
	assert.Equal(t, "alice", doc.LastAuthor)
}
