// Package apierror holds the JSON error envelope every endpoint answers with.
package apierror

import "github.com/gin-gonic/gin"

// Error codes.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidMergeRequest  = "INVALID_MERGE_REQUEST"
	CodeNotFound             = "NOT_FOUND"
	CodeSourceProjectMissing = "SOURCE_PROJECT_MISSING"
	CodeRunInProgress        = "RUN_IN_PROGRESS"
	CodeUpstream             = "UPSTREAM_ERROR"
	CodeInternal             = "INTERNAL_ERROR"
)

// Body is the error payload.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response represents an error response.
type Response struct {
	Error Body `json:"error"`
}

// Write sends an error response.
func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Error: Body{Code: code, Message: message}})
}

// Abort sends an error response and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{Error: Body{Code: code, Message: message}})
}
