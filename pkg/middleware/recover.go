package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/reqid"
	"github.com/shashiranjanraj/giftbid/pkg/response"
)

// Recovery converts a downstream panic into a logged 500 so one bad request
// cannot take the listener down. Mount it inside reqid/metrics but outside
// Logger, so the panic log still carries the request ID.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"error", fmt.Sprintf("%v", v),
					"request_id", reqid.FromCtx(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				response.Error(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
