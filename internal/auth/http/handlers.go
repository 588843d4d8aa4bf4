package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/api/http/request"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/domain"
)

func (h *Handler) register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := request.JSON(c, &req); err != nil {
		apperr.Render(c, err, h.debug)
		return
	}
	u, tok, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		apperr.Render(c, err, h.debug)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":    toAccount(u),
		"token":   tok,
		"message": "Registration successful.",
	})
}

func (h *Handler) login(c *gin.Context) {
	var req domain.LoginRequest
	if err := request.JSON(c, &req); err != nil {
		apperr.Render(c, err, h.debug)
		return
	}
	u, tok, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		apperr.Render(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":         toAccount(u),
		"access_token": tok.AccessToken,
		"token_type":   tok.TokenType,
		"expires_at":   tok.ExpiresAt,
	})
}

func (h *Handler) logout(c *gin.Context) {
	sess := domain.Session{
		UserID:    auth.UserID(c),
		TokenID:   auth.TokenID(c),
		ExpiresAt: auth.Expiry(c),
	}
	if sess.TokenID == "" {
		apperr.Render(c, apperr.Unauthorized(), h.debug)
		return
	}
	if err := h.authService.Logout(c.Request.Context(), sess); err != nil {
		apperr.Render(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
