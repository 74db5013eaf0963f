package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/studyhall/internal/api"
)

func newTestStore(ttl time.Duration) (*Store, *time.Time) {
	s := NewStore(ttl)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	sess, err := s.Create("alice", api.RoleMember)
	require.NoError(t, err)
	require.Len(t, sess.Token, 64) // 32 bytes hex

	got, ok := s.Get(sess.Token)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, api.RoleMember, got.Role)

	_, ok = s.Get("no-such-token")
	assert.False(t, ok)
}

func TestGet_ExpiredSessionIsDropped(t *testing.T) {
	s, now := newTestStore(time.Hour)

	sess, err := s.Create("alice", api.RoleMember)
	require.NoError(t, err)

	*now = now.Add(61 * time.Minute)
	_, ok := s.Get(sess.Token)
	assert.False(t, ok)
	assert.Zero(t, s.Count())
}

func TestTouch_KeepsSessionAlive(t *testing.T) {
	s, now := newTestStore(time.Hour)

	sess, err := s.Create("alice", api.RoleMember)
	require.NoError(t, err)

	*now = now.Add(50 * time.Minute)
	s.Touch(sess.Token)

	*now = now.Add(50 * time.Minute)
	_, ok := s.Get(sess.Token)
	assert.True(t, ok, "touched session must survive past the original deadline")
}

func TestLastSeenFor_NewestAcrossSessions(t *testing.T) {
	s, now := newTestStore(time.Hour)

	first, err := s.Create("alice", api.RoleMember)
	require.NoError(t, err)
	_ = first

	*now = now.Add(10 * time.Minute)
	_, err = s.Create("alice", api.RoleMember)
	require.NoError(t, err)

	seen, ok := s.LastSeenFor("alice")
	require.True(t, ok)
	assert.Equal(t, *now, seen)

	_, ok = s.LastSeenFor("bob")
	assert.False(t, ok)
}

func TestDeleteForUser(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	a1, _ := s.Create("alice", api.RoleMember)
	a2, _ := s.Create("alice", api.RoleMember)
	b, _ := s.Create("bob", api.RoleMember)

	s.DeleteForUser("alice")

	_, ok := s.Get(a1.Token)
	assert.False(t, ok)
	_, ok = s.Get(a2.Token)
	assert.False(t, ok)
	_, ok = s.Get(b.Token)
	assert.True(t, ok)
}

func TestPurge(t *testing.T) {
	s, now := newTestStore(time.Hour)

	stale, _ := s.Create("alice", api.RoleMember)
	*now = now.Add(30 * time.Minute)
	fresh, _ := s.Create("bob", api.RoleMember)

	*now = now.Add(45 * time.Minute)
	s.Purge()

	_, ok := s.Get(stale.Token)
	assert.False(t, ok)
	_, ok = s.Get(fresh.Token)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Count())
}
