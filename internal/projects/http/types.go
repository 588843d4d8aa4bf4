package http

import (
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
)

const (
	resource = "Project"
	basePath = "/api/v1/projects"
)

// Handler bundles the dependencies for project endpoints.
type Handler struct {
	svc   *service.ProjectService
	cache respcache.Invalidator
	debug bool
}

func New(svc *service.ProjectService, cache respcache.Invalidator, debug bool) *Handler {
	if cache == nil {
		cache = respcache.NopInvalidator{}
	}
	return &Handler{svc: svc, cache: cache, debug: debug}
}
