package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const (
	correlationKey ctxKey = iota
	sessionKey
	loggerKey
)

// redacted replaces the value of any attribute whose key names a credential.
const redacted = "[REDACTED]"

var secretKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"access_token":  {},
	"authorization": {},
}

type sessionFields struct {
	sessionID string
	profileID string
}

// New returns a JSON logger on stdout tagged with serviceName.
func New(serviceName, level string) *slog.Logger {
	return NewWithWriter(serviceName, level, os.Stdout)
}

// NewWithWriter is New with an explicit destination. Credential attributes
// (password, token, authorization) are always redacted.
func NewWithWriter(serviceName, level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl == slog.LevelDebug,
		ReplaceAttr: redact,
	})
	return slog.New(h).With(slog.String("service", serviceName))
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

// ParseLevel maps a textual level to a slog.Level. Unknown values are info.
func ParseLevel(level string) slog.Level {
	var lvl slog.Level
	s := strings.ToLower(strings.TrimSpace(level))
	if s == "warning" {
		s = "warn"
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// WithSession attaches the storefront session and the shop profile it
// belongs to, so request logs can be joined per shopper.
func WithSession(ctx context.Context, sessionID, profileID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionFields{sessionID: sessionID, profileID: profileID})
}

func SessionIDFromContext(ctx context.Context) string {
	f, _ := ctx.Value(sessionKey).(sessionFields)
	return f.sessionID
}

func ProfileIDFromContext(ctx context.Context) string {
	f, _ := ctx.Value(sessionKey).(sessionFields)
	return f.profileID
}

func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request logger, or slog.Default() when none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithContext decorates l with the correlation, session and trace
// identifiers found in ctx. Absent identifiers are omitted.
func WithContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	var attrs []any
	if id := CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}
	if f, ok := ctx.Value(sessionKey).(sessionFields); ok {
		if f.sessionID != "" {
			attrs = append(attrs, slog.String("session_id", f.sessionID))
		}
		if f.profileID != "" {
			attrs = append(attrs, slog.String("profile_id", f.profileID))
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}
