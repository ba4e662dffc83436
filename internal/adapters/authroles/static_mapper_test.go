package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/target/webshell/internal/domain/auth"
)

func TestStaticRoleMapper_Map(t *testing.T) {
	m := StaticRoleMapper{AdminGroup: "cn=admins", TrainerGroup: "cn=trainers"}

	assert.Equal(t, domainauth.RoleAdmin, m.Map([]string{"cn=trainers", "cn=admins"}))
	assert.Equal(t, domainauth.RoleTrainer, m.Map([]string{"cn=staff", "cn=trainers"}))
	assert.Equal(t, domainauth.RoleNone, m.Map([]string{"cn=staff"}))
	assert.Equal(t, domainauth.RoleNone, m.Map(nil))
}

func TestStaticRoleMapper_EmptyGroupNeverMatches(t *testing.T) {
	m := StaticRoleMapper{}
	assert.Equal(t, domainauth.RoleNone, m.Map([]string{""}))
}
