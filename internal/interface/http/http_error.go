package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/suncare/pkg/errors"
)

// HTTPError is the error shape rendered by errorHandlingMiddleware.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError builds an HTTPError.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

type appErrorMapping struct {
	status int
	code   string
}

// appErrorStatuses maps domain codes to transport responses. An empty code
// keeps the handler's fallback code.
var appErrorStatuses = map[string]appErrorMapping{
	"invalid_input":       {http.StatusBadRequest, "invalid_request"},
	"not_found":           {http.StatusNotFound, "not_found"},
	"account_not_found":   {http.StatusNotFound, "not_found"},
	"email_exists":        {http.StatusConflict, "email_exists"},
	"invalid_credentials": {http.StatusUnauthorized, "invalid_credentials"},
	"invalid_token":       {http.StatusUnauthorized, "invalid_token"},
	"llm_error":           {http.StatusBadGateway, ""},
	"feed_error":          {http.StatusBadGateway, ""},
	"monitor_error":       {http.StatusServiceUnavailable, ""},
}

func fromAppError(err error, fallbackCode string) *HTTPError {
	status, code := http.StatusInternalServerError, fallbackCode
	if m, ok := appErrorStatuses[apperrors.CodeOf(err)]; ok {
		status = m.status
		if m.code != "" {
			code = m.code
		}
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func abortWithAppError(c *gin.Context, err error, fallbackCode string) {
	abortWithError(c, fromAppError(err, fallbackCode))
}

// abortInvalidRequest reports a body that failed to bind.
func abortInvalidRequest(c *gin.Context, err error) {
	abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
