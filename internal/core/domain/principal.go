package domain

// APIKeyPrincipalID is the synthetic subject attached by the API-key guard.
const APIKeyPrincipalID = "api-key-user"

// Principal is the identity resolved for a single request by whichever
// guard authenticated it. It is constructed fresh per request and never
// persisted.
type Principal struct {
	ID           string
	Email        string
	Roles        []string
	IsAPIKeyAuth bool
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsGlobalAdmin reports whether the principal holds the global admin role.
func (p *Principal) IsGlobalAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// APIKeyPrincipal returns the fixed principal synthesised after a
// successful static API-key check.
func APIKeyPrincipal() *Principal {
	return &Principal{
		ID:           APIKeyPrincipalID,
		Roles:        []string{RoleAdmin, RoleUser},
		IsAPIKeyAuth: true,
	}
}
