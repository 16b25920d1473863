package di

import (
	"context"
	"errors"
	"net/http"

	"degrees/application/commands/bus"
	"degrees/application/ports"
	querybus "degrees/application/queries/bus"
	"degrees/infrastructure/config"
	"degrees/infrastructure/seed"
	"degrees/interfaces/http/rest"
	"degrees/pkg/auth"
	"degrees/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        ports.GraphStore
	Metrics      *observability.Collector
	Tracer       *observability.Tracer
	CloudWatch   *observability.CloudWatchPublisher
	JWTValidator *auth.JWTValidator
	RateLimiter  *auth.RateLimiter
	QueryBus     *querybus.QueryBus
	CommandBus   *bus.CommandBus
}

// HTTPHandler builds the REST router over the container.
func (c *Container) HTTPHandler() http.Handler {
	opts := rest.Options{
		CommandBus:         c.CommandBus,
		QueryBus:           c.QueryBus,
		Store:              c.Store,
		Validator:          c.JWTValidator,
		Limiter:            c.RateLimiter,
		Tracer:             c.Tracer,
		RateLimitPerMinute: c.Config.RateLimitPerMinute,
		EnableCORS:         c.Config.EnableCORS,
		AllowedOrigins:     c.Config.CORSAllowedOrigins,
		Debug:              c.Config.IsDevelopment(),
	}
	if c.Config.EnableMetrics {
		opts.Metrics = c.Metrics
	}
	return rest.NewRouter(opts, c.Logger).Setup()
}

// Seed imports the fixture named by SEED_FILE, if any.
func (c *Container) Seed(ctx context.Context) error {
	if c.Config.SeedFile == "" {
		return nil
	}
	doc, err := seed.LoadFile(c.Config.SeedFile)
	if err != nil {
		return err
	}
	if err := c.CommandBus.Send(ctx, doc); err != nil {
		return err
	}
	c.Logger.Info("Seeded graph",
		zap.String("file", c.Config.SeedFile),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("edges", len(doc.Edges)),
	)
	return nil
}

// Shutdown flushes buffered metrics and closes the store.
func (c *Container) Shutdown(ctx context.Context) error {
	c.CloudWatch.Flush(ctx)

	var errs []error
	if err := c.Store.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	// Sync fails on stderr/stdout under some terminals; not worth reporting.
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}
