// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"github.com/gin-gonic/gin"
)

// RoleAdmin marks a token holder who may read deleted and restricted content.
const RoleAdmin = "admin"

// Identity represents the caller's identity. Anonymous callers are guests
// with uid 0.
type Identity interface {
	// UserID returns the forum uid, 0 for guests.
	UserID() int64
	// Roles returns the user's assigned roles.
	Roles() []string
	// HasRole checks if the user has a specific role.
	HasRole(role string) bool
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
	// IsPrivileged reports whether the token carries the admin role.
	IsPrivileged() bool
}

type identity struct {
	userID        int64
	roles         []string
	authenticated bool
}

func (i *identity) UserID() int64 {
	return i.userID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

func (i *identity) IsPrivileged() bool {
	return i.authenticated && i.HasRole(RoleAdmin)
}

// GetIdentity extracts the Identity from a Gin context.
// Returns a guest identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{}
	}

	uid, ok := userID.(int64)
	if !ok || uid <= 0 {
		return &identity{}
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	return &identity{
		userID:        uid,
		roles:         roleList,
		authenticated: true,
	}
}
