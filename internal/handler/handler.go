package handler

import (
	"errors"
	"log"
	"net/http"

	"commsdesk/internal/service"
	"commsdesk/pkg/apperr"
	"commsdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestMeta extracts the caller's network identity for the audit trail.
func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// parseIDParam reads and validates a uuid path parameter.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid id parameter"))
		return uuid.Nil, false
	}
	return id, true
}

// respondErr maps a service error onto the envelope. Internal failures are
// logged with their cause but reported generically.
func respondErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	// Failed logins carry the remaining attempt count.
	var invalid *service.InvalidCredentialsError
	if errors.As(err, &invalid) {
		c.JSON(status, response.ErrorWithData(apperr.ClientMessage(err),
			gin.H{"remaining_attempts": invalid.Remaining}))
		return
	}

	c.JSON(status, response.Error(apperr.ClientMessage(err)))
}
