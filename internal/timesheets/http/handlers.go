package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/api/http/request"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/pagination"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/service"
)

const (
	resource = "Timesheet"
	basePath = "/api/v1/timesheets"
)

type Handler struct {
	svc   *service.TimesheetService
	cache respcache.Invalidator
	debug bool
}

func New(svc *service.TimesheetService, cache respcache.Invalidator, debug bool) *Handler {
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

// fail renders err; action names the verb used in the access denied
// message.
func (h *Handler) fail(c *gin.Context, id int64, action string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		err = apperr.NotFound(resource, id)
	case errors.Is(err, domain.ErrForbidden):
		err = apperr.Forbidden("TIMESHEET_ACCESS_DENIED",
			fmt.Sprintf("Access denied. You can only %s your own timesheets.", action))
	}
	apperr.Render(c, err, h.debug)
}

func (h *Handler) list(c *gin.Context) {
	page := pagination.FromQuery(c)
	items, total, err := h.svc.List(c.Request.Context(), auth.UserID(c), request.Filters(c), page)
	if err != nil {
		h.fail(c, 0, "view", err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewList(items, page, total))
}

func (h *Handler) get(c *gin.Context) {
	id, err := request.ID(c, resource)
	if err != nil {
		h.fail(c, 0, "view", err)
		return
	}
	t, err := h.svc.Get(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		h.fail(c, id, "view", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) create(c *gin.Context) {
	var req domain.CreateRequest
	if err := request.JSON(c, &req); err != nil {
		h.fail(c, 0, "create", err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		h.fail(c, 0, "create", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), basePath)
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) update(c *gin.Context) {
	id, err := request.ID(c, resource)
	if err != nil {
		h.fail(c, 0, "update", err)
		return
	}
	var req domain.UpdateRequest
	if err := request.JSON(c, &req); err != nil {
		h.fail(c, id, "update", err)
		return
	}
	t, err := h.svc.Update(c.Request.Context(), auth.UserID(c), id, req)
	if err != nil {
		h.fail(c, id, "update", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), basePath, fmt.Sprintf("%s/%d", basePath, id))
	c.JSON(http.StatusOK, t)
}

func (h *Handler) delete(c *gin.Context) {
	id, err := request.ID(c, resource)
	if err != nil {
		h.fail(c, 0, "delete", err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), id); err != nil {
		h.fail(c, id, "delete", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), basePath)
	c.Status(http.StatusNoContent)
}
