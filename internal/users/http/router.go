package http

import "github.com/gin-gonic/gin"

// Register attaches user CRUD routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

// RegisterCurrent attaches GET /user for the authenticated user.
func (h *Handler) RegisterCurrent(rg *gin.RouterGroup) {
	rg.GET("/user", h.current)
}
