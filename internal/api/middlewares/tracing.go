package middlewares

import (
	"fmt"
	"net/http"

	"github.com/babylonchain/asset-staking-service/internal/observability/tracing"
)

const TraceIdHeader = "X-Trace-Id"

// TracingMiddleware starts the tracing of a request and returns its trace id
// so that clients can quote it.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.AttachTracingIntoContext(r.Context())
		if traceId := ctx.Value(tracing.TraceIdKey); traceId != nil {
			w.Header().Set(TraceIdHeader, fmt.Sprint(traceId))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
