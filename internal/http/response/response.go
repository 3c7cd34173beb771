package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
)

// Envelope wraps every successful payload.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type ErrorEnvelope struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Code       string              `json:"code,omitempty"`
	Errors     []apierr.FieldError `json:"errors,omitempty"`
	Success    bool                `json:"success"`
}

const internalErrorMessage = "Internal server error"

func Respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{StatusCode: status, Data: data, Message: message, Success: true})
}

func RespondOK(c *gin.Context, data any) {
	Respond(c, http.StatusOK, data, "Success")
}

func RespondCreated(c *gin.Context, data any, message string) {
	Respond(c, http.StatusCreated, data, message)
}

// RespondError writes an error envelope and aborts the chain.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	write(c, ErrorEnvelope{StatusCode: status, Message: msg, Code: code})
}

// Error maps err onto the envelope. *apierr.Error carries its own status
// and code; anything else is a 500.
func Error(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		write(c, ErrorEnvelope{StatusCode: status, Message: ae.Message(), Code: ae.Code, Errors: ae.Fields})
		return
	}
	msg := internalErrorMessage
	if err != nil && gin.Mode() != gin.ReleaseMode {
		msg = err.Error()
	}
	if err != nil {
		_ = c.Error(err)
	}
	write(c, ErrorEnvelope{StatusCode: http.StatusInternalServerError, Message: msg, Code: "internal_error"})
}

func write(c *gin.Context, env ErrorEnvelope) {
	if env.StatusCode >= http.StatusInternalServerError && gin.Mode() == gin.ReleaseMode {
		env.Message = internalErrorMessage
	}
	if env.Code != "" {
		observability.Current().IncAPIError(env.Code)
	}
	env.Success = false
	c.AbortWithStatusJSON(env.StatusCode, env)
}
