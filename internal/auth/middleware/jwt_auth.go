package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
)

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (domain.Session, error)
}

// RequireAuth validates the bearer token and stores the user id, token id
// and expiry on the gin context. Missing, invalid and revoked tokens get
// 401.
func RequireAuth(authn Authenticator, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			apperr.Render(c, apperr.Unauthorized(), debug)
			return
		}

		sess, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrRevoked) {
				logging.For(c.Request.Context(), zap.L()).Debug("token rejected", zap.Error(err))
				err = apperr.Unauthorized()
			}
			apperr.Render(c, err, debug)
			return
		}

		c.Set(auth.CtxUserID, sess.UserID)
		c.Set(auth.CtxTokenID, sess.TokenID)
		c.Set(auth.CtxExpiry, sess.ExpiresAt)
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
