package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/target/webshell/internal/domain/auth"
)

func TestSessionContext(t *testing.T) {
	assert.Nil(t, GetSessionFromContext(context.Background()))

	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleAdmin}
	ctx := SetSessionInContext(context.Background(), sess)
	assert.Same(t, sess, GetSessionFromContext(ctx))

	assert.Equal(t, ctx, SetSessionInContext(ctx, nil), "nil session leaves ctx unchanged")
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsSignedIn(ctx))
	assert.Nil(t, GetClaimsFromContext(ctx))

	claims := &domainauth.SessionClaims{Subject: "u1"}
	ctx = SetClaimsInContext(ctx, claims)
	assert.True(t, IsSignedIn(ctx))
	assert.Same(t, claims, GetClaimsFromContext(ctx))

	assert.Equal(t, ctx, SetClaimsInContext(ctx, nil))
}
