package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{in: "admin", want: RoleAdmin, wantOK: true},
		{in: "trainer", want: RoleTrainer, wantOK: true},
		{in: "Admin", want: RoleNone, wantOK: false},
		{in: "", want: RoleNone, wantOK: false},
		{in: "superuser", want: RoleNone, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoles_AllValid(t *testing.T) {
	for _, r := range Roles() {
		assert.True(t, r.IsValid(), "role %q should be valid", r)
	}
	assert.False(t, RoleNone.IsValid())
}

func TestSessionClaims_Role(t *testing.T) {
	var nilClaims *SessionClaims
	assert.Equal(t, RoleNone, nilClaims.Role())

	assert.Equal(t, RoleNone, (&SessionClaims{Subject: "u1"}).Role())

	unknown := Role("owner")
	assert.Equal(t, RoleNone, (&SessionClaims{Metadata: SessionMetadata{Role: &unknown}}).Role())

	trainer := RoleTrainer
	assert.Equal(t, RoleTrainer, (&SessionClaims{Metadata: SessionMetadata{Role: &trainer}}).Role())
}

func TestSession_Claims(t *testing.T) {
	exp := time.Now().Add(time.Hour)

	withRole := Session{ID: "s1", UserID: "u1", Email: "a@example.com", Role: RoleAdmin, ExpiresAt: exp}
	c := withRole.Claims()
	require.NotNil(t, c.Metadata.Role)
	assert.Equal(t, RoleAdmin, c.Role())
	assert.Equal(t, "u1", c.Subject)
	assert.Equal(t, "s1", c.SessionID)
	assert.Equal(t, exp, c.ExpiresAt)

	noRole := Session{ID: "s2", UserID: "u2"}
	assert.Nil(t, noRole.Claims().Metadata.Role)
	assert.Equal(t, RoleNone, noRole.Claims().Role())
}

func TestSession_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Session{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "Ada", Session{FirstName: "Ada"}.DisplayName())
	assert.Equal(t, "ada@example.com", Session{Email: "ada@example.com", UserID: "u1"}.DisplayName())
	assert.Equal(t, "u1", Session{UserID: "u1"}.DisplayName())
}

func TestCredentialContext(t *testing.T) {
	ctx := context.Background()

	_, ok := CredentialFromContext(ctx)
	assert.False(t, ok)

	assert.Equal(t, ctx, WithCredential(ctx, Credential{}))

	ctx = WithCredential(ctx, Credential{SessionID: "abc"})
	got, ok := CredentialFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "abc", got.SessionID)
}
