package tracing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TracingContextKey string

const TracingInfoKey = TracingContextKey("requestTracingInfo")
const TraceIdKey = TracingContextKey("requestTraceId")

type SpanDetail struct {
	Name     string
	Duration int64
}

type TracingInfo struct {
	SpanDetails []SpanDetail
}

func (t *TracingInfo) addSpanDetail(detail SpanDetail) {
	t.SpanDetails = append(t.SpanDetails, detail)
}

// AttachTracingIntoContext gives the request a trace id and a place to record
// its spans.
func AttachTracingIntoContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, TraceIdKey, uuid.NewString())
	return context.WithValue(ctx, TracingInfoKey, &TracingInfo{})
}

// StartSpan records the duration of a named span until the returned function
// is called. Contexts without tracing info are not traced.
func StartSpan(ctx context.Context, name string) func() {
	tracingInfo, ok := ctx.Value(TracingInfoKey).(*TracingInfo)
	if !ok {
		return func() {}
	}
	startTime := time.Now()
	return func() {
		duration := time.Since(startTime).Milliseconds()
		tracingInfo.addSpanDetail(SpanDetail{Name: name, Duration: duration})
	}
}

func WrapWithSpan[Result any](ctx context.Context, name string, next func() (Result, error)) (Result, error) {
	defer StartSpan(ctx, name)()
	return next()
}
