package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/api/http/request"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/service"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
)

const resource = "Attribute"

// Paths whose cached responses embed attribute definitions.
var dependents = []string{"/api/v1/attributes", "/api/v1/projects", "/api/v1/users"}

type Handler struct {
	svc   *service.AttributeService
	cache respcache.Invalidator
	debug bool
}

func New(svc *service.AttributeService, cache respcache.Invalidator, debug bool) *Handler {
	if cache == nil {
		cache = respcache.NopInvalidator{}
	}
	return &Handler{svc: svc, cache: cache, debug: debug}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

func (h *Handler) fail(c *gin.Context, id int64, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		err = apperr.NotFound(resource, id)
	}
	apperr.Render(c, err, h.debug)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), request.Filters(c))
	if err != nil {
		h.fail(c, 0, err)
		return
	}
	if items == nil {
		items = []domain.Attribute{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) get(c *gin.Context) {
	id, err := request.ID(c, resource)
	if err != nil {
		h.fail(c, 0, err)
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) create(c *gin.Context) {
	var req domain.CreateRequest
	if err := request.JSON(c, &req); err != nil {
		h.fail(c, 0, err)
		return
	}
	a, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, 0, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), "/api/v1/attributes")
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) update(c *gin.Context) {
	id, err := request.ID(c, resource)
	if err != nil {
		h.fail(c, 0, err)
		return
	}
	var req domain.UpdateRequest
	if err := request.JSON(c, &req); err != nil {
		h.fail(c, id, err)
		return
	}
	a, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), dependents...)
	c.JSON(http.StatusOK, a)
}

func (h *Handler) delete(c *gin.Context) {
	id, err := request.ID(c, resource)
	if err != nil {
		h.fail(c, 0, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, id, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), dependents...)
	c.Status(http.StatusNoContent)
}
