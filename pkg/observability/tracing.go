package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray subsegments around searches and store calls.
// Without an active segment (local runs, tests) every call is a pass-through.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a tracer. When enabled is false nothing is recorded.
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{serviceName: serviceName, enabled: enabled}
}

// Trace runs fn inside a subsegment named after the service and operation,
// attaching annotations as indexed keys.
func (t *Tracer) Trace(ctx context.Context, operation string, annotations map[string]string, fn func(context.Context) error) error {
	if t == nil || !t.enabled || xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}

	ctx, seg := xray.BeginSubsegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, operation))
	for k, v := range annotations {
		seg.AddAnnotation(k, v)
	}

	err := fn(ctx)
	seg.Close(err)
	return err
}

// Annotate adds an indexed annotation to the current segment, if any.
func (t *Tracer) Annotate(ctx context.Context, key string, value any) {
	if t == nil || !t.enabled {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddAnnotation(key, value)
	}
}

// Middleware opens a segment per HTTP request when tracing is enabled.
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	if t == nil || !t.enabled {
		return next
	}
	return xray.Handler(xray.NewFixedSegmentNamer(t.serviceName), next)
}
