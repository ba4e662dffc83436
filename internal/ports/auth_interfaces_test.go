package ports_test

import (
	"testing"

	"github.com/target/webshell/internal/adapters/authroles"
	mocks "github.com/target/webshell/internal/mocks/auth"
	"github.com/target/webshell/internal/ports"
)

// This test only verifies that our doubles conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mocks.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*mocks.MemorySessionStore)(nil)
	var _ ports.RoleDirectory = (*mocks.MemoryRoleDirectory)(nil)
	var _ ports.TokenVerifier = (*mocks.StaticTokenVerifier)(nil)
	var _ ports.RoleMapper = authroles.StaticRoleMapper{}
}
