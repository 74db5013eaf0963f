package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyhall/studyhall/internal/api"
)

func TestManager_SetAndClearNotifySubscribers(t *testing.T) {
	m := NewManager()

	var got []*Session
	m.Subscribe(func(s *Session) { got = append(got, s) })

	s := &Session{Token: "tok", Username: "alice", Role: api.RoleAdmin}
	m.Set(s)
	assert.Equal(t, s, m.Current())
	assert.Equal(t, "tok", m.Token())

	m.Clear()
	assert.Nil(t, m.Current())
	assert.Equal(t, "", m.Token())

	assert.Len(t, got, 2)
	assert.Equal(t, s, got[0])
	assert.Nil(t, got[1])
}

func TestSession_IsAdmin(t *testing.T) {
	assert.True(t, (&Session{Role: api.RoleAdmin}).IsAdmin())
	assert.False(t, (&Session{Role: api.RoleMember}).IsAdmin())
	var s *Session
	assert.False(t, s.IsAdmin())
}
