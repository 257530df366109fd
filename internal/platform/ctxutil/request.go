package ctxutil

import "context"

type (
	requestDataKey struct{}
	traceKey       struct{}
)

// RequestData carries the authenticated caller for the current request.
type RequestData struct {
	TokenString string
	UserID      string
	Role        string
}

// Trace identifies one HTTP request in logs and response headers.
type Trace struct {
	TraceID   string
	RequestID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func TraceFrom(ctx context.Context) (Trace, bool) {
	if ctx == nil {
		return Trace{}, false
	}
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// LogFields returns the trace ids and caller of ctx as logger key/values.
// Empty values are left out.
func LogFields(ctx context.Context) []any {
	var out []any
	if t, ok := TraceFrom(ctx); ok {
		if t.TraceID != "" {
			out = append(out, "trace_id", t.TraceID)
		}
		if t.RequestID != "" {
			out = append(out, "request_id", t.RequestID)
		}
	}
	if rd := GetRequestData(ctx); rd != nil && rd.UserID != "" {
		out = append(out, "user_id", rd.UserID)
	}
	return out
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
