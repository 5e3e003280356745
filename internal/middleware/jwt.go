package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daylog-app/daylog-api/internal/models"
	"github.com/daylog-app/daylog-api/internal/service"
	"github.com/daylog-app/daylog-api/internal/token"
	appErrors "github.com/daylog-app/daylog-api/pkg/errors"
	"github.com/daylog-app/daylog-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the resolved principal.
const ContextPrincipalKey = "principal"

type tokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// JWT protects routes by requiring a valid bearer access token. The scheme
// check runs before any cryptographic work; access tokens are self-contained
// and never touch the refresh-token ledger.
func JWT(codec tokenVerifier, metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			metrics.RecordGuardRejection("missing_header")
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "bearer token required"))
			c.Abort()
			return
		}

		const scheme = "Bearer "
		if !strings.HasPrefix(header, scheme) {
			metrics.RecordGuardRejection("bad_scheme")
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "bearer token required"))
			c.Abort()
			return
		}

		raw := header[len(scheme):]
		if raw == "" {
			metrics.RecordGuardRejection("empty_token")
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "token is empty"))
			c.Abort()
			return
		}

		claims, err := codec.Verify(raw)
		if err != nil {
			metrics.RecordGuardRejection("invalid_token")
			switch {
			case errors.Is(err, token.ErrExpired):
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "token expired"))
			case errors.Is(err, token.ErrBadSignature), errors.Is(err, token.ErrMalformed):
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token"))
			default:
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token"))
			}
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, models.Principal{UserID: claims.UserID})
		c.Next()
	}
}

// CurrentPrincipal returns the principal attached by the JWT middleware.
func CurrentPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return models.Principal{}, false
	}
	principal, ok := v.(models.Principal)
	return principal, ok
}
