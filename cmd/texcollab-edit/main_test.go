package main

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texcollab/internal/session"
)

func TestUserFromToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u7", "name": "Uma"}).
		SignedString([]byte("whatever"))
	require.NoError(t, err)

	userID, err := userFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u7", userID)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "Uma"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = userFromToken(noSub)
	assert.Error(t, err)

	_, err = userFromToken("not-a-token")
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("TEXCOLLAB_BASE_URL", " http://docs.internal ")
	t.Setenv("TEXCOLLAB_SYNC_DELAY", "750ms")
	t.Setenv("TEXCOLLAB_POLL_INTERVAL", "soon")

	assert.Equal(t, "http://docs.internal", envOrDefault("TEXCOLLAB_BASE_URL", "x"))
	assert.Equal(t, "x", envOrDefault("TEXCOLLAB_UNSET", "x"))
	assert.Equal(t, 750*time.Millisecond, durationEnv("TEXCOLLAB_SYNC_DELAY", time.Second))
	assert.Equal(t, time.Second, durationEnv("TEXCOLLAB_POLL_INTERVAL", time.Second))
}

func TestPeerNamesFallBackToUserID(t *testing.T) {
	names := peerNames([]session.Peer{{UserID: "u1", Name: "Ann"}, {UserID: "u2"}})
	assert.Equal(t, []string{"Ann", "u2"}, names)
}
