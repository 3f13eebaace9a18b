package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndIdentify(t *testing.T) {
	a := NewAuthority("s3cret", time.Hour)
	tok, err := a.Issue("ZED123", "a1")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	id, err := a.Identify("ZED123", tok, "b1")
	require.NoError(t, err)
	assert.Equal(t, Identity{GameCode: "ZED123", PlayerID: "a1"}, id, "claimed id is ignored when tokens are on")

	_, err = a.Identify("OTHER1", tok, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewAuthority("different", time.Hour).Identify("ZED123", tok, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = a.Identify("ZED123", "", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestIdentify_Expired(t *testing.T) {
	a := NewAuthority("s3cret", time.Minute)
	start := time.Now()
	a.now = func() time.Time { return start }
	tok, err := a.Issue("ZED123", "a1")
	require.NoError(t, err)

	a.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = a.Identify("ZED123", tok, "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestDevMode(t *testing.T) {
	a := NewAuthority("", time.Hour)
	require.True(t, a.DevMode())

	tok, err := a.Issue("ZED123", "a1")
	require.NoError(t, err)
	assert.Empty(t, tok)

	id, err := a.Identify("ZED123", "", "b2")
	require.NoError(t, err)
	assert.Equal(t, "b2", id.PlayerID)

	_, err = a.Identify("ZED123", "", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCredentials(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?code=ZED123&token=qt&player_id=a1", nil)
	tok, player := Credentials(r)
	assert.Equal(t, "qt", tok)
	assert.Equal(t, "a1", player)

	r.Header.Set("Authorization", "Bearer ht")
	r.Header.Set("X-Player-ID", "b1")
	tok, player = Credentials(r)
	assert.Equal(t, "ht", tok)
	assert.Equal(t, "b1", player)
}
