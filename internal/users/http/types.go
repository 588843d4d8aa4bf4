package http

import (
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/users/service"
)

const (
	resource    = "User"
	basePath    = "/api/v1/users"
	currentPath = "/api/v1/user"
)

type Handler struct {
	svc   *service.UserService
	cache respcache.Invalidator
	debug bool
}

func New(svc *service.UserService, cache respcache.Invalidator, debug bool) *Handler {
	if cache == nil {
		cache = respcache.NopInvalidator{}
	}
	return &Handler{svc: svc, cache: cache, debug: debug}
}
