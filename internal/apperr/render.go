package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
)

// Render writes err as the JSON error envelope and aborts the chain.
// Internal details are only exposed when debug is set.
func Render(c *gin.Context, err error, debug bool) {
	var fe *filter.ValidationError
	if errors.As(err, &fe) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"status":  "error",
			"message": "Invalid filter parameters",
			"errors":  fe.Fields,
		})
		return
	}

	e := As(err)
	body := gin.H{
		"status":     "error",
		"message":    e.Message,
		"error_code": e.Code,
	}
	if e.Kind == KindValidation {
		body["errors"] = e.Fields
	}
	if e.Kind == KindInternal {
		logging.For(c.Request.Context(), zap.L()).Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(e.Cause),
		)
		if debug {
			if e.Cause != nil {
				body["exception"] = e.Cause.Error()
			}
			if e.file != "" {
				body["file"] = e.file
			}
		}
	}
	c.AbortWithStatusJSON(e.Kind.Status(), body)
}

// NoRoute answers unknown paths.
func NoRoute(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
		"status":     "error",
		"message":    "Resource not found",
		"error_code": "RESOURCE_NOT_FOUND",
	})
}

// Recovery turns panics into a 500 envelope.
func Recovery(debug bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = &panicError{value: recovered}
		}
		Render(c, Internal(err), debug)
	})
}

type panicError struct{ value any }

func (p *panicError) Error() string { return fmt.Sprint("panic: ", p.value) }
