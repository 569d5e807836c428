package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/authorization"
)

const contextIdentityKey = "identity"

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextIdentityKey, identity)
		c.Next()
	}
}

// RequirePermission gates a route on one permission code. AuthRequired
// must run first.
func (s *Server) RequirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := s.identity(c)
		if identity == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Allow(c.Request.Context(), identity.UserID, identity.RoleID, code); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Next()
	}
}

// SelfOrManage admits the account owner and anyone holding user:manage.
func (s *Server) SelfOrManage() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := s.identity(c)
		if identity == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if c.Param("id") == identity.UserID.String() {
			c.Next()
			return
		}

		if err := s.authzSvc.Allow(c.Request.Context(), identity.UserID, identity.RoleID, PermUserManage); err != nil {
			AbortWithError(c, authorization.ErrForbidden)
			return
		}

		c.Next()
	}
}

func (s *Server) identity(c *gin.Context) *authdomain.Identity {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return nil
	}
	identity, ok := value.(*authdomain.Identity)
	if !ok {
		return nil
	}
	return identity
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
