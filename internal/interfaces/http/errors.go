package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/application/service"
	appwf "github.com/garyjia/library-acquisition/internal/application/workflow"
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// writeError maps application errors onto status codes. Only unexpected
// failures are logged; their detail stays out of the response body.
func (h *Handlers) writeError(c *gin.Context, op string, err error) {
	var violation *domainwf.GuardViolation

	switch {
	case errors.As(err, &violation):
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   op + " rejected",
			Reasons: violation.Reasons,
		})
	case errors.Is(err, port.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   err.Error(),
		})
	case errors.Is(err, port.ErrConflict):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Error:   "request was modified concurrently, reload and try again",
		})
	case errors.Is(err, appwf.ErrProvisioning), errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   err.Error(),
		})
	default:
		h.logger.Error("Request failed", "op", op, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   op + " failed",
		})
	}
}
