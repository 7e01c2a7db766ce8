package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
	appErrors "github.com/rtdacademy/SignupForm-sub036/pkg/errors"
	"github.com/rtdacademy/SignupForm-sub036/pkg/response"
)

// SelfParam lets a student through when the named route parameter equals their own user id.
const SelfParam = "studentKey"

// RequireRoles admits callers holding one of the roles. Students are additionally admitted to
// routes addressing their own student key when allowSelf is set.
func RequireRoles(allowSelf bool, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf && claims.Role == models.RoleStudent {
			if target := c.Param(SelfParam); target != "" && target == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// Claims returns the verified claims stored by JWT, or nil.
func Claims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
