package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaustech/docportal/internal/workflow"
)

func TestSessionRoundTripAndExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	_, err := loadSession(path, now)
	assert.ErrorIs(t, err, errNotLoggedIn)

	sf := sessionFile{
		Server: "http://portal.test",
		Session: workflow.Session{
			UserID: 7, Username: "ST2024007", Role: workflow.RoleStudent,
			Token: "tok", ExpiresAt: now.Add(time.Hour),
		},
	}
	require.NoError(t, saveSession(path, sf))

	got, err := loadSession(path, now)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Session.Token)
	assert.Equal(t, int64(7), got.Session.UserID)
	assert.Equal(t, workflow.RoleStudent, got.Session.Role)
	assert.True(t, sf.Session.ExpiresAt.Equal(got.Session.ExpiresAt))

	_, err = loadSession(path, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, workflow.ErrSessionExpired)

	require.NoError(t, removeSession(path))
	require.NoError(t, removeSession(path))
	_, err = loadSession(path, now)
	assert.ErrorIs(t, err, errNotLoggedIn)
}
