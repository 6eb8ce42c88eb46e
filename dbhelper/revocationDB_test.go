package dbhelper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationLedger_RevokeAndCheck(t *testing.T) {
	t.Parallel()

	l := NewRevocationLedger(newTestDB(t))

	revoked, err := l.IsRevoked("jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, l.Revoke("jti-1", time.Now().Add(time.Hour)))

	revoked, err = l.IsRevoked("jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationLedger_RevokeTwice(t *testing.T) {
	t.Parallel()

	l := NewRevocationLedger(newTestDB(t))
	exp := time.Now().Add(time.Hour)
	require.NoError(t, l.Revoke("jti-1", exp))
	require.NoError(t, l.Revoke("jti-1", exp))

	revoked, err := l.IsRevoked("jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationLedger_PruneExpired(t *testing.T) {
	t.Parallel()

	l := NewRevocationLedger(newTestDB(t))
	require.NoError(t, l.Revoke("stale", time.Now().Add(-time.Hour)))
	require.NoError(t, l.Revoke("live", time.Now().Add(time.Hour)))

	pruned, err := l.PruneExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	revoked, err := l.IsRevoked("live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = l.IsRevoked("stale")
	require.NoError(t, err)
	assert.False(t, revoked)
}
