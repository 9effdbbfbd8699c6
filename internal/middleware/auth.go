package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/pkg/auth"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
	"github.com/mediqueue/clinic-api/pkg/httputil"
)

const contextActorKey = "actor"

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwtSvc auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

// Authenticate verifies the bearer token and stores the actor identity in the
// request context. The downstream core trusts this identity fully.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateAccessToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid token"))
			c.Abort()
			return
		}

		role := model.Role(claims.Role)
		if !role.Valid() {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid token"))
			c.Abort()
			return
		}

		c.Set(contextActorKey, model.Actor{UserID: claims.UserID, Role: role})
		c.Next()
	}
}

// RequireRoles gates a route on a declared allowed-role set, before any
// database access. Record-level ownership is checked later by the services.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized("missing identity"))
			c.Abort()
			return
		}
		if !allowed[actor.Role] {
			httputil.RespondWithError(c, apperrors.Forbidden("role not permitted for this operation"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFrom extracts the authenticated identity set by Authenticate.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	value, exists := c.Get(contextActorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := value.(model.Actor)
	return actor, ok
}
