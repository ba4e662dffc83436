package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/ports"
)

func TestMockAuthProvider_BeginCountsFlows(t *testing.T) {
	ctx := context.Background()
	in := ports.BeginInput{RedirectURL: "/dashboard"}

	p := NewMockAuthProvider()
	for i, want := range []string{"1", "2"} {
		authURL, state, nonce, err := p.Begin(ctx, in)
		require.NoError(t, err, "flow %d", i)
		assert.Equal(t, "https://mock-idp/auth", authURL)
		assert.Equal(t, "state-"+want, state)
		assert.Equal(t, "nonce-"+want, nonce)
	}

	custom := &MockAuthProvider{AuthURL: "https://idp.test/login", StatePrefix: "st", NoncePrefix: "no"}
	authURL, state, nonce, err := custom.Begin(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://idp.test/login", "st-1", "no-1"}, []string{authURL, state, nonce})
}

func TestMockAuthProvider_Overrides(t *testing.T) {
	p := &MockAuthProvider{
		BeginFunc: func(context.Context, ports.BeginInput) (string, string, string, error) {
			return "", "", "", assert.AnError
		},
		ExchangeFunc: func(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
			return domainauth.Identity{UserID: "from-" + in.Code}, nil
		},
	}

	_, _, _, err := p.Begin(context.Background(), ports.BeginInput{})
	require.ErrorIs(t, err, assert.AnError)

	id, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "from-abc", id.UserID)
}

func TestMockAuthProvider_ExchangeIdentity(t *testing.T) {
	in := ports.ExchangeInput{Code: "c", State: "state-1", Nonce: "nonce-1"}

	id, err := NewMockAuthProvider().Exchange(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", id.UserID)
	assert.Equal(t, []string{"trainers"}, id.Groups)
	assert.True(t, id.ExpiresAt.After(time.Now()))

	// A zero-value provider still hands out the built-in user.
	id, err = (&MockAuthProvider{}).Exchange(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "mock.user@example.com", id.Email)

	admin := &MockAuthProvider{DefaultUser: domainauth.Identity{UserID: "boss", Role: domainauth.RoleAdmin}}
	id, err = admin.Exchange(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, id.Role)
}

func TestMemorySessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	sess := domainauth.Session{ID: "sess_1", UserID: "u1", Role: domainauth.RoleTrainer, ExpiresAt: time.Now().Add(time.Hour)}

	require.ErrorContains(t, store.Save(ctx, domainauth.Session{UserID: "u1"}), "session ID cannot be empty")
	require.NoError(t, store.Save(ctx, sess))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	for _, id := range []string{"", "sess_missing"} {
		_, err = store.Get(ctx, id)
		require.ErrorIs(t, err, domainauth.ErrSessionNotFound, "id %q", id)
	}

	require.NoError(t, store.Delete(ctx, ""))
	require.NoError(t, store.Delete(ctx, "sess_1"))
	_, err = store.Get(ctx, "sess_1")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestMemorySessionStore_GetErr(t *testing.T) {
	store := NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), domainauth.Session{ID: "s1"}))

	store.GetErr = assert.AnError
	_, err := store.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMemorySessionStore_Concurrent(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := "s" + string(rune('a'+i))
			_ = store.Save(ctx, domainauth.Session{ID: id})
			_, _ = store.Get(ctx, id)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, store.Len())
}

func TestMemoryRoleDirectory(t *testing.T) {
	dir := &MemoryRoleDirectory{Roles: map[string]domainauth.Role{"u1": domainauth.RoleTrainer}}

	role, err := dir.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleTrainer, role)

	role, err = dir.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleNone, role)

	dir.Err = assert.AnError
	_, err = dir.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestStaticTokenVerifier(t *testing.T) {
	admin := domainauth.RoleAdmin
	claims := &domainauth.SessionClaims{Subject: "u1", Metadata: domainauth.SessionMetadata{Role: &admin}}
	v := &StaticTokenVerifier{Claims: map[string]*domainauth.SessionClaims{"tok": claims}}

	got, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Same(t, claims, got)

	_, err = v.Verify(context.Background(), "other")
	require.ErrorIs(t, err, domainauth.ErrInvalidSessionToken)

	v.Err = assert.AnError
	_, err = v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, assert.AnError)
}
