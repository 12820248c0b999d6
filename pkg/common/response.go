package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error string `json:"error"`
}

// ErrorResponse writes a JSON error with the given status code
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Error: message})
}

// AppErrorResponse maps an AppError onto the matching HTTP status code
func AppErrorResponse(c *gin.Context, err *AppError) {
	status := http.StatusInternalServerError
	switch err.Code {
	case CodeValidation:
		status = http.StatusBadRequest
	case CodeNotFound:
		status = http.StatusNotFound
	case CodeDuplicate, CodeReferential:
		status = http.StatusConflict
	}
	c.JSON(status, ErrorBody{Error: err.Message})
}
