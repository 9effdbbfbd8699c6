package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediqueue/clinic-api/pkg/errors"
)

// Response is the envelope shared by every endpoint
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// Pagination carries page metadata for list endpoints
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalDocs  int64 `json:"totalDocs"`
	TotalPages int   `json:"totalPages"`
}

// PaginatedData wraps a page of documents with its metadata
type PaginatedData struct {
	Docs interface{} `json:"docs"`
	Pagination
}

// RespondWithSuccess sends a success envelope with the given status code
func RespondWithSuccess(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// RespondWithError maps an error to the envelope; unknown errors become 500
// with no detail leaked to the caller.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	if appErr, ok := errors.As(err); ok {
		status = appErr.StatusCode()
		message = appErr.Message
	}

	_ = c.Error(err)
	c.JSON(status, Response{
		StatusCode: status,
		Data:       nil,
		Message:    message,
		Success:    false,
	})
}
