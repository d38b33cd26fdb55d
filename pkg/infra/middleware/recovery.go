package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/pkg/infra/middleware/common"
	"github.com/kart-io/tripplanner/pkg/utils/errors"
	"github.com/kart-io/tripplanner/pkg/utils/response"
)

// PanicHandler is called after a panic has been logged and before the
// error response is written.
type PanicHandler func(c *gin.Context, err interface{}, stack []byte)

// Recovery returns a middleware that turns panics into ErrPanic responses.
func Recovery() gin.HandlerFunc {
	return RecoveryWithHandler(nil)
}

// RecoveryWithHandler is Recovery with an extra panic hook.
// The stack trace is always logged and never returned to clients.
func RecoveryWithHandler(onPanic PanicHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.Errorw("panic recovered",
					"panic", fmt.Sprint(r),
					"stack_trace", string(stack),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", common.GetRequestID(c.Request.Context()),
				)

				if onPanic != nil {
					onPanic(c, r, stack)
				}

				response.Fail(c, errors.ErrPanic.WithMessage(fmt.Sprintf("panic: %v", r)))
				c.Abort()
			}
		}()
		c.Next()
	}
}
