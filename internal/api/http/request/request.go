// Package request holds the small parsing helpers every handler shares.
package request

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
)

// ID parses the :id path parameter. Anything that is not a positive
// integer cannot name a row, so it is reported as not found.
func ID(c *gin.Context, resource string) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound(resource, raw)
	}
	return id, nil
}

// Filters collects the filters[<field>] query parameters.
func Filters(c *gin.Context) filter.Filters {
	return filter.FromQuery(c.QueryMap("filters"))
}

// JSON binds the body into dst.
func JSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Invalid("body", "The request body must be valid JSON.")
	}
	return nil
}
