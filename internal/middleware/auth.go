package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"insight-flow/backend/internal/auth"
	"insight-flow/backend/internal/logger"
	"insight-flow/backend/internal/services"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) bool
}

// Authenticate resolves the bearer token to an active user. It must run
// after Transaction. A nil denylist disables the revocation check.
func Authenticate(tokens *auth.TokenManager, users services.UserService, denylist RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", "Bearer")
			abort(c, http.StatusUnauthorized, "unauthenticated", "could not validate credentials")
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			abort(c, http.StatusUnauthorized, "unauthenticated", "could not validate credentials")
			return
		}
		if denylist != nil && denylist.IsRevoked(c.Request.Context(), claims.ID) {
			c.Header("WWW-Authenticate", "Bearer")
			abort(c, http.StatusUnauthorized, "unauthenticated", "token has been revoked")
			return
		}

		db, ok := DB(c)
		if !ok {
			log := logger.Get()
			log.Error().Msg("authenticate called without a request transaction")
			abort(c, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthenticated", "could not validate credentials")
			return
		}
		user, err := users.GetUserByID(db, userID)
		if err != nil {
			if services.KindOf(err) == services.KindNotFound {
				abort(c, http.StatusUnauthorized, "unauthenticated", "could not validate credentials")
				return
			}
			log := logger.Get()
			log.Error().Err(err).Msg("load authenticated user")
			abort(c, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		if !user.IsActive {
			abort(c, http.StatusBadRequest, "invalid_argument", "inactive user")
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}
