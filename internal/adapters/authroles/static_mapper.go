package authroles

import (
	domainauth "github.com/target/webshell/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to roles by exact group-name membership.
// Admin membership wins over trainer membership; no match yields RoleNone.
type StaticRoleMapper struct {
	AdminGroup   string
	TrainerGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	if m.member(groups, m.AdminGroup) {
		return domainauth.RoleAdmin
	}
	if m.member(groups, m.TrainerGroup) {
		return domainauth.RoleTrainer
	}
	return domainauth.RoleNone
}

func (StaticRoleMapper) member(groups []string, want string) bool {
	if want == "" {
		return false
	}
	for _, g := range groups {
		if g == want {
			return true
		}
	}
	return false
}
