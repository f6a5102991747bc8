package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

const userContextKey = "currentUser"

// Identity trusts the identity headers set by the auth gateway in
// front of this service and rejects requests without them. Token
// verification happens upstream.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-ID")
		role := entity.Role(c.GetHeader("X-User-Role"))
		if id == "" || !role.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid identity"})
			return
		}

		c.Set(userContextKey, &entity.User{
			ID:           id,
			Email:        c.GetHeader("X-User-Email"),
			Name:         c.GetHeader("X-User-Name"),
			Role:         role,
			AssignedZone: c.GetHeader("X-User-Zone"),
		})
		c.Next()
	}
}

// RequireRole guards a route group to the listed roles.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid identity"})
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, ok := v.(*entity.User)
	if !ok {
		return nil
	}
	return user
}
