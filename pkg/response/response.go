package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lsm-recorder/backend/pkg/apperr"
)

// OK sends a 200 JSON response with the payload fields plus success=true.
func OK(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusOK, envelope(true, payload))
}

// Created sends a 201 JSON response with the payload fields plus success=true.
func Created(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusCreated, envelope(true, payload))
}

// Fail sends an error response with the given status and message.
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, msg string) { Fail(c, http.StatusBadRequest, msg) }

// NotFound sends 404 with error message.
func NotFound(c *gin.Context, msg string) { Fail(c, http.StatusNotFound, msg) }

// Conflict sends 409 with error message.
func Conflict(c *gin.Context, msg string) { Fail(c, http.StatusConflict, msg) }

// Internal sends 500 with error message.
func Internal(c *gin.Context, msg string) { Fail(c, http.StatusInternalServerError, msg) }

// ServiceUnavailable sends 503 with the payload fields plus success=false.
// Health checks report extra fields (status, error) on failure.
func ServiceUnavailable(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusServiceUnavailable, envelope(false, payload))
}

// Error maps an error's kind to an HTTP status and sends the standard
// failure envelope. Only the user-facing message is surfaced, never the
// wrapped cause.
func Error(c *gin.Context, err error) {
	Fail(c, statusFor(err), apperr.Message(err))
}

// ErrorWith behaves like Error but merges extra payload fields into the
// failure body (e.g. the existing row on a duplicate create).
func ErrorWith(c *gin.Context, err error, extra gin.H) {
	body := gin.H{"success": false, "error": apperr.Message(err)}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(statusFor(err), body)
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func envelope(success bool, payload gin.H) gin.H {
	body := gin.H{"success": success}
	for k, v := range payload {
		body[k] = v
	}
	return body
}
