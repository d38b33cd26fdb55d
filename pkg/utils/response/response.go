// Package response defines the JSON envelope every planner endpoint returns.
package response

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/tripplanner/pkg/infra/middleware/common"
	"github.com/kart-io/tripplanner/pkg/utils/errors"
)

// Response is the unified API response structure.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// HTTPCode mirrors the HTTP status for clients that only see the body
	HTTPCode int `json:"http_code,omitempty"`

	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`

	// Timestamp is Unix milliseconds
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Success creates a successful response with data.
func Success(data interface{}) *Response {
	return &Response{
		Code:     0,
		HTTPCode: http.StatusOK,
		Message:  "success",
		Data:     data,
	}
}

// Err creates an error response from an Errno.
func Err(e *errors.Errno) *Response {
	if e == nil {
		e = errors.ErrInternal
	}
	return &Response{
		Code:     e.Code,
		HTTPCode: e.HTTPStatus(),
		Message:  e.MessageEN,
	}
}

// ErrWithLang creates an error response in the requested language.
func ErrWithLang(e *errors.Errno, lang string) *Response {
	r := Err(e)
	if e != nil {
		r.Message = e.Message(lang)
	}
	return r
}

// WithRequestID sets the request ID.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// IsSuccess reports whether the response carries code 0.
func (r *Response) IsSuccess() bool {
	return r.Code == 0
}

// HTTPStatus picks the HTTP status for the response.
func (r *Response) HTTPStatus() int {
	if r.HTTPCode != 0 {
		return r.HTTPCode
	}
	if r.Code == 0 {
		return http.StatusOK
	}
	if e, ok := errors.Lookup(r.Code); ok {
		return e.HTTPStatus()
	}

	switch errors.GetCategory(r.Code) {
	case errors.CategoryRequest:
		return http.StatusBadRequest
	case errors.CategoryResource:
		return http.StatusNotFound
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// write stamps request id and timestamp, then sends resp with status.
func write(c *gin.Context, status int, resp *Response) {
	resp.RequestID = common.GetRequestID(c.Request.Context())
	resp.Timestamp = time.Now().UnixMilli()
	c.JSON(status, resp)
}

// OK sends a successful response.
func OK(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Success(data))
}

// Accepted sends a 202 response for work that continues in the background.
func Accepted(c *gin.Context, data interface{}) {
	resp := Success(data)
	resp.HTTPCode = http.StatusAccepted
	write(c, http.StatusAccepted, resp)
}

// Fail sends an error response using Errno, honoring Accept-Language.
func Fail(c *gin.Context, e *errors.Errno) {
	lang, _, _ := strings.Cut(c.GetHeader("Accept-Language"), ",")
	resp := ErrWithLang(e, strings.TrimSpace(lang))
	write(c, resp.HTTPStatus(), resp)
}

// FailWithError sends an error response from any error.
func FailWithError(c *gin.Context, err error) {
	Fail(c, errors.FromError(err))
}
