package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texcollab/internal/document/model"
	"texcollab/internal/document/repository"
	"texcollab/internal/presence"
)

func newTestService(t *testing.T) *DocumentService {
	t.Helper()
	svc := NewDocumentService(repository.NewMemoryDocumentRepository(), presence.NewMemoryRegistry(presence.DefaultTTL))
	ctx := context.Background()
	_, err := svc.CreateDocument(ctx, "doc", "owner", "Paper", `\begin{document}v0\end{document}`)
	require.NoError(t, err)
	require.NoError(t, svc.GrantAccess(ctx, "doc", "writer", model.RoleWriter))
	require.NoError(t, svc.GrantAccess(ctx, "doc", "reader", model.RoleReader))
	return svc
}

func TestSaveReturnsPreSaveVersionPlusOne(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		before, err := svc.LoadDocument(ctx, "doc", "owner")
		require.NoError(t, err)
		version, err := svc.SaveDocument(ctx, "doc", "writer", "rev", nil)
		require.NoError(t, err)
		assert.Equal(t, before.Version+1, version)
	}
}

func TestConcurrentSessionsLastWriteWins(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	s1, err := svc.LoadDocument(ctx, "doc", "owner")
	require.NoError(t, err)
	s2, err := svc.LoadDocument(ctx, "doc", "writer")
	require.NoError(t, err)
	require.Equal(t, s1.Version, s2.Version)
	base := s1.Version

	v1, err := svc.SaveDocument(ctx, "doc", "owner", s1.Content+" edit from S1", nil)
	require.NoError(t, err)
	v2, err := svc.SaveDocument(ctx, "doc", "writer", s2.Content+" edit from S2", nil)
	require.NoError(t, err)

	assert.Equal(t, base+1, v1)
	assert.Equal(t, base+2, v2)

	stored, err := svc.LoadDocument(ctx, "doc", "reader")
	require.NoError(t, err)
	// S2 wrote content based on the version S1 already superseded, and S1's
	// edit is gone from the store.
	assert.Equal(t, s2.Content+" edit from S2", stored.Content)
	assert.NotContains(t, stored.Content, "edit from S1")
	assert.Equal(t, "writer", stored.LastAuthor)
}

func TestCompareAndSwapSaveSurfacesConflict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	base := int64(0)

	_, err := svc.SaveDocument(ctx, "doc", "owner", "S1", &base)
	require.NoError(t, err)
	_, err = svc.SaveDocument(ctx, "doc", "writer", "S2", &base)
	assert.ErrorIs(t, err, model.ErrVersionConflict)

	stored, err := svc.LoadDocument(ctx, "doc", "owner")
	require.NoError(t, err)
	assert.Equal(t, "S1", stored.Content)
}

func TestCapabilityChecks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveDocument(ctx, "doc", "reader", "nope", nil)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = svc.LoadDocument(ctx, "doc", "stranger")
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = svc.Heartbeat(ctx, "doc", "stranger", "Eve")
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = svc.LoadDocument(ctx, "missing", "owner")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.ErrorIs(t, svc.GrantAccess(ctx, "doc", "x", "admin"), model.ErrInvalidInput)
}

func TestHeartbeatReturnsEveryLiveUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Heartbeat(ctx, "doc", "owner", "Olivia")
	require.NoError(t, err)
	entries, err := svc.Heartbeat(ctx, "doc", "reader", "")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	names := map[string]string{}
	for _, e := range entries {
		names[e.UserID] = e.DisplayName
	}
	assert.Equal(t, "Olivia", names["owner"])
	assert.Equal(t, "reader", names["reader"], "display name falls back to the user id")
}

func TestCreateDocumentGeneratesID(t *testing.T) {
	svc := newTestService(t)
	id, err := svc.CreateDocument(context.Background(), "", "owner", "", "")
	require.NoError(t, err)
	assert.Len(t, id, 36)

	doc, err := svc.LoadDocument(context.Background(), id, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Untitled Document", doc.Title)
	assert.Equal(t, int64(0), doc.Version)

	_, err = svc.CreateDocument(context.Background(), "", " ", "", "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
