package usecases

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/samirrijal/geodrop/internal/core/domain"
	"github.com/samirrijal/geodrop/internal/core/ports"
	"github.com/samirrijal/geodrop/internal/pkg/idgen"
)

var tracer = otel.Tracer("github.com/samirrijal/geodrop/internal/core/usecases")

// Option customises a service.
type Option func(*options)

type options struct {
	now      func() time.Time
	ids      ports.IDGenerator
	policy   domain.ExpiryPolicy
	cacheTTL int
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the default snowflake node 1 generator.
func WithIDGenerator(ids ports.IDGenerator) Option {
	return func(o *options) { o.ids = ids }
}

// WithExpiryPolicy replaces domain.DefaultExpiryPolicy.
func WithExpiryPolicy(p domain.ExpiryPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithCacheTTL sets how long single offers stay cached, in seconds.
func WithCacheTTL(seconds int) Option {
	return func(o *options) { o.cacheTTL = seconds }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		policy:   domain.DefaultExpiryPolicy(),
		cacheTTL: 30,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.ids == nil {
		gen, err := idgen.New(1)
		if err != nil {
			panic("idgen: " + err.Error())
		}
		o.ids = gen
	}
	return o
}

// timestamp samples the clock at the precision every backend can store.
func (o options) timestamp() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}

// publish runs a best-effort event publish. Failures are logged only.
func publish(ctx context.Context, what string, fn func() error) {
	if err := fn(); err != nil {
		slog.WarnContext(ctx, "publish event failed", "event", what, "error", err)
	}
}
