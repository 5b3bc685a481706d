package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type ctxKey int

const loggerKey ctxKey = iota

// logAttrsLocal holds attributes handlers attach to the access log line.
const logAttrsLocal = "geodrop.log_attrs"

// RequestIDLogMiddleware puts a request-scoped *slog.Logger carrying the
// id generated by the requestid middleware into the user context.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := slog.Default()
		if rid := requestID(c); rid != "" {
			logger = logger.With("request_id", rid)
		}
		c.SetUserContext(WithLogger(c.UserContext(), logger))
		return c.Next()
	}
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// LoggerFromCtx extracts the per-request slog.Logger from a context.
// Falls back to the default logger if none is set.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// requestID is the id set by the requestid middleware, which also honours a
// client-supplied X-Request-ID.
func requestID(c *fiber.Ctx) string {
	rid, _ := c.Locals("requestid").(string)
	return rid
}

// annotate adds attributes to this request's access log line.
func annotate(c *fiber.Ctx, attrs ...slog.Attr) {
	prev, _ := c.Locals(logAttrsLocal).([]slog.Attr)
	c.Locals(logAttrsLocal, append(prev, attrs...))
}
