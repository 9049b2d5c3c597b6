package errors

import (
	"errors"
	"net/http"
	"strings"

	"codeberg.org/gatekeep/server/internal/common"
	"codeberg.org/gatekeep/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.Respond() for errors returned by the session service; it maps
//     the domain error kinds to status codes and logs anything unexpected
//   - Use errors.BadRequest(), errors.ValidationError(), etc. for request errors
//   - Never call both logger.ErrorErr() and errors.InternalError() for the same error
//
// For services/repositories/internal packages:
//   - Return the sentinel kinds from internal/common, or wrap infrastructure
//     errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller (handler) decide how to log and respond
//   - Do not log errors in non-handler code (avoid double logging)

// standard error codes
const (
	CodeUnauthorized        = "unauthorized"
	CodeNotFound            = "not_found"
	CodeValidationError     = "validation_error"
	CodeServerError         = "server_error"
	CodeBadRequest          = "bad_request"
	CodeConflict            = "conflict"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeInvalidToken        = "invalid_token"
	CodeTokenExpired        = "token_expired"
	CodeProviderUnavailable = "provider_unavailable"
)

// maps an error returned by the auth core to a response. Unknown errors
// become a logged 500.
func Respond(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrConflict):
		Conflict(c, "an account with this email already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		abort(c, http.StatusUnauthorized, CodeInvalidCredentials, "invalid email or password")
	case errors.Is(err, common.ErrExpiredToken):
		abort(c, http.StatusUnauthorized, CodeTokenExpired, "refresh token has expired")
	case errors.Is(err, common.ErrInvalidToken):
		abort(c, http.StatusUnauthorized, CodeInvalidToken, "invalid or revoked token")
	case errors.Is(err, common.ErrInvalidInput):
		BadRequest(c, strings.TrimPrefix(err.Error(), common.ErrInvalidInput.Error()+": "), nil)
	case errors.Is(err, common.ErrProviderUnavailable):
		abort(c, http.StatusServiceUnavailable, CodeProviderUnavailable, "oauth provider is not configured")
	default:
		InternalError(c, "", err)
	}
}

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}

	abort(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// returns a 404 not found error
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"

	if resource != "" {
		message = resource + " not found"
	}

	abort(c, http.StatusNotFound, CodeNotFound, message)
}

// returns a 400 bad request error
func BadRequest(c *gin.Context, message string, err error) {
	if message == "" {
		message = "invalid request"
	}

	response := ErrorResponse{
		Error:   CodeBadRequest,
		Message: message,
	}

	// add details if error provided
	if err != nil {
		response.Details = sanitizeError(err)
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, response)
}

// returns a 400 bad request error for validation failures
func ValidationError(c *gin.Context, err error) {
	message := "validation failed"
	details := ""

	if err != nil {
		details = sanitizeError(err)

		if strings.Contains(err.Error(), "binding") || strings.Contains(err.Error(), "validation") {
			message = "request validation failed"
		}
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeValidationError,
		Message: message,
		Details: details,
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	// log full error server-side with the request-scoped logger
	logger.FromContext(c.Request.Context()).Error(message,
		"error", err,
		"user_id", c.GetString("user_id"),
	)

	// return sanitized error to client
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:   CodeServerError,
		Message: message,
		Details: sanitizeError(err),
	})
}

// returns a 409 conflict error
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "resource conflict"
	}

	abort(c, http.StatusConflict, CodeConflict, message)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// sanitizes error messages for production
func sanitizeError(err error) string {
	return classifyError(err).sanitized
}
