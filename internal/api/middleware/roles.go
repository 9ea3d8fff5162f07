package middleware

// ExtractRoles flattens the role claims of a Keycloak token payload.
// It collects realm_access.roles and every resource_access.<client>.roles,
// de-duplicating by first occurrence. A payload that already carries a
// flattened roles array (as produced by an earlier pass of this guard
// chain) is accepted as-is, which keeps re-entry idempotent.
func ExtractRoles(claims map[string]any) []string {
	if claims == nil {
		return nil
	}

	var roles []string
	seen := make(map[string]struct{})
	add := func(raw any) {
		list, ok := raw.([]any)
		if !ok {
			// Already-flattened []string shape.
			if strs, ok := raw.([]string); ok {
				for _, s := range strs {
					if _, dup := seen[s]; !dup {
						seen[s] = struct{}{}
						roles = append(roles, s)
					}
				}
			}
			return
		}
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			roles = append(roles, s)
		}
	}

	if flat, ok := claims["roles"]; ok {
		add(flat)
	}
	if realm, ok := claims["realm_access"].(map[string]any); ok {
		add(realm["roles"])
	}
	if resources, ok := claims["resource_access"].(map[string]any); ok {
		for _, entry := range resources {
			if m, ok := entry.(map[string]any); ok {
				add(m["roles"])
			}
		}
	}
	return roles
}
