package auth

// IsAllowed decides a (role, endpoint) policy check. An empty required set
// default-allows any authenticated caller; endpoints that must stay public
// bypass the guard entirely instead of relying on this.
func IsAllowed(requiredRoles []string, actualRole string, isActive bool) bool {
	if len(requiredRoles) == 0 {
		return true
	}
	if !isActive {
		return false
	}
	for _, role := range requiredRoles {
		if role == actualRole {
			return true
		}
	}
	return false
}
