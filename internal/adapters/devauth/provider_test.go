package devauth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/webshell/internal/domain/auth"
	"github.com/target/webshell/internal/ports"
)

func TestProvider_BeginRedirectsToCallback(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)

	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, callbackPath, u.Path)
	assert.Equal(t, "dev", u.Query().Get("code"))
	assert.Equal(t, state, u.Query().Get("state"))

	for _, v := range []string{state, nonce} {
		_, parseErr := uuid.Parse(v)
		require.NoError(t, parseErr)
	}
	assert.NotEqual(t, state, nonce)
}

func TestProvider_ExchangeIdentity(t *testing.T) {
	prov, err := NewProvider(Config{
		UserID:    "dev-user",
		Email:     "dev@example.com",
		FirstName: "Dev",
		Groups:    []string{"trainers"},
		Role:      domainauth.RoleAdmin,
	})
	require.NoError(t, err)

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev-user", id.UserID)
	assert.Equal(t, "Dev", id.FirstName)
	assert.Equal(t, domainauth.RoleAdmin, id.Role)
	assert.WithinDuration(t, time.Now().Add(defaultDuration), id.ExpiresAt, time.Minute)

	// Callers may mutate the returned groups freely.
	id.Groups[0] = "admins"
	again, err := prov.Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"trainers"}, again.Groups)
}

func TestProvider_CustomDuration(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "u", Email: "u@example.com", SessionDuration: 15 * time.Minute})
	require.NoError(t, err)

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), id.ExpiresAt, time.Minute)
	assert.Equal(t, domainauth.RoleNone, id.Role)
}

func TestNewProvider_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "no user", cfg: Config{Email: "dev@example.com"}, want: "UserID is required"},
		{name: "no email", cfg: Config{UserID: "dev"}, want: "Email is required"},
		{name: "bad role", cfg: Config{UserID: "dev", Email: "d@example.com", Role: "owner"}, want: `unknown role "owner"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg)
			require.ErrorContains(t, err, tt.want)
		})
	}
}
