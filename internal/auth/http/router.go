package http

import "github.com/gin-gonic/gin"

// Register attaches the public endpoints.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
}

// RegisterProtected attaches endpoints that need a valid token. rg must
// already run RequireAuth.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.POST("/logout", h.logout)
}
