package util

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope every endpoint replies with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func HandleSuccess(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// HandleError writes the error envelope. Classified errors keep their own
// status; anything else is reported with statusCode.
func HandleError(c *gin.Context, statusCode int, err error) {
	appErr := AsError(err)
	if appErr.Kind != KindInternal {
		statusCode = appErr.Status()
	}
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}

	if statusCode >= http.StatusInternalServerError {
		LogError("request failed", err,
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
		)
		c.JSON(statusCode, Response{Success: false, Message: "Something went wrong"})
		return
	}

	message := appErr.Message
	if appErr.Kind == KindInternal {
		message = err.Error()
	}
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Errors:  appErr.Details,
	})
}

// HandleServiceError writes the envelope for an error returned by a service.
func HandleServiceError(c *gin.Context, err error) {
	HandleError(c, http.StatusInternalServerError, err)
}

type PaginationArgs struct {
	Page  int
	Limit int
}

// Skip returns the number of records before the requested 1-indexed page,
// saturating at math.MaxInt64.
func (p PaginationArgs) Skip() int64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	pages, limit := int64(p.Page-1), int64(p.Limit)
	if pages > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return pages * limit
}
