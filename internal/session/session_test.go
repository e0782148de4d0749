package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("test-secret-test-secret-test-secret")
	token, err := m.Issue(Session{UserID: 42, Role: models.RoleSchool, Name: "THPT Nguyễn Du", Email: "school@example.com"}, time.Minute)
	require.NoError(t, err)

	s, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.UserID)
	assert.Equal(t, models.RoleSchool, s.Role)
	assert.Equal(t, "THPT Nguyễn Du", s.Name)
	assert.Equal(t, token, s.AccessToken)
	assert.True(t, s.HasRole(models.RoleSchool))
}

func TestManager_Parse_Invalid(t *testing.T) {
	m := NewManager("secret-a")
	other := NewManager("secret-b")

	_, err := m.Parse("")
	assert.ErrorIs(t, err, ErrMissing)

	token, err := other.Issue(Session{UserID: 1, Role: models.RoleAdmin}, time.Minute)
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalid)

	expired, err := m.Issue(Session{UserID: 1, Role: models.RoleAdmin}, -time.Minute)
	require.NoError(t, err)
	_, err = m.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalid)

	badRole, err := m.Issue(Session{UserID: 1, Role: "guest"}, time.Minute)
	require.NoError(t, err)
	_, err = m.Parse(badRole)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestContext(t *testing.T) {
	ctx := WithSession(context.Background(), Session{UserID: 7, AccessToken: "tok"})
	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, "tok", BearerToken(ctx))
	assert.Equal(t, "", BearerToken(context.Background()))
}
