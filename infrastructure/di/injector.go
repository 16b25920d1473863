//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"degrees/infrastructure/config"
)

// InitializeContainer creates a fully wired container. It is written by hand
// from the wire.go injector; keep it in step with SuperSet.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	awsConfig, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	domainConfig, err := ProvideDomainConfig(cfg)
	if err != nil {
		return nil, err
	}
	client := ProvideDynamoDBClient(awsConfig)
	collector := ProvideMetrics()
	graphStore, err := ProvideGraphStore(ctx, cfg, domainConfig, client, collector, logger)
	if err != nil {
		return nil, err
	}
	tracer := ProvideTracer(cfg)
	cloudwatchClient := ProvideCloudWatchClient(awsConfig)
	cloudWatchPublisher := ProvideCloudWatchPublisher(cfg, cloudwatchClient, logger)
	jwtValidator, err := ProvideJWTValidator(cfg)
	if err != nil {
		return nil, err
	}
	rateLimiter := ProvideRateLimiter(cfg)
	searchObserver := ProvideSearchObserver(collector, cloudWatchPublisher)
	queryBus, err := ProvideQueryBus(graphStore, domainConfig, cfg, searchObserver, tracer, logger)
	if err != nil {
		return nil, err
	}
	graphValidator := ProvideGraphValidator(domainConfig)
	commandBus, err := ProvideCommandBus(graphStore, graphValidator, logger)
	if err != nil {
		return nil, err
	}
	container := &Container{
		Config:       cfg,
		Logger:       logger,
		Store:        graphStore,
		Metrics:      collector,
		Tracer:       tracer,
		CloudWatch:   cloudWatchPublisher,
		JWTValidator: jwtValidator,
		RateLimiter:  rateLimiter,
		QueryBus:     queryBus,
		CommandBus:   commandBus,
	}
	return container, nil
}
