package auth

import "github.com/shinyyama/market-backend/internal/model"

// Authorize reports whether role is one of allowed.
func Authorize(role model.Role, allowed ...model.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
