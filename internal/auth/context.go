package auth

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID  = "user_id"
	CtxTokenID = "token_id"
	CtxExpiry  = "token_expires_at"
)

// UserID returns the authenticated user's id, or 0 when the request is
// anonymous. It is set by middleware.RequireAuth.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}

// Identity keys cached responses by user; anonymous requests return "".
func Identity(c *gin.Context) string {
	id := UserID(c)
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func TokenID(c *gin.Context) string {
	return c.GetString(CtxTokenID)
}

// Expiry is when the current token stops being valid.
func Expiry(c *gin.Context) time.Time {
	return c.GetTime(CtxExpiry)
}
