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
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/users/domain"
)

func (h *Handler) fail(c *gin.Context, id int64, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		err = apperr.NotFound(resource, id)
	}
	apperr.Render(c, err, h.debug)
}

func (h *Handler) list(c *gin.Context) {
	page := pagination.FromQuery(c)
	items, total, err := h.svc.List(c.Request.Context(), request.Filters(c), page)
	if err != nil {
		h.fail(c, 0, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewList(items, page, total))
}

func (h *Handler) get(c *gin.Context) {
	id, err := request.ID(c, resource)
	if err != nil {
		h.fail(c, 0, err)
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) current(c *gin.Context) {
	id := auth.UserID(c)
	if id == 0 {
		apperr.Render(c, apperr.Unauthorized(), h.debug)
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) create(c *gin.Context) {
	var req domain.CreateRequest
	if err := request.JSON(c, &req); err != nil {
		h.fail(c, 0, err)
		return
	}
	u, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, 0, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), basePath)
	c.JSON(http.StatusCreated, u)
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
	u, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), basePath, fmt.Sprintf("%s/%d", basePath, id), currentPath)
	c.JSON(http.StatusOK, u)
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
	h.cache.Invalidate(c.Request.Context(), auth.Identity(c), basePath, currentPath, "/api/v1/timesheets")
	c.Status(http.StatusNoContent)
}
