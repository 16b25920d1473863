package di

import (
	"context"
	"fmt"

	"degrees/application/commands/bus"
	commandhandlers "degrees/application/commands/handlers"
	"degrees/application/ports"
	querybus "degrees/application/queries/bus"
	queryhandlers "degrees/application/queries/handlers"
	domainconfig "degrees/domain/config"
	"degrees/domain/core/aggregates"
	"degrees/domain/core/validators"
	"degrees/infrastructure/config"
	"degrees/infrastructure/persistence/decorators"
	"degrees/infrastructure/persistence/dynamodb"
	"degrees/infrastructure/persistence/memory"
	"degrees/infrastructure/persistence/neo4j"
	"degrees/infrastructure/persistence/sqlite"
	"degrees/pkg/auth"
	"degrees/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = level
	}

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDomainConfig selects the domain rules for the environment.
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.LoadDomainConfig(cfg.Environment)
	if err := domainCfg.Validate(); err != nil {
		return nil, err
	}
	return domainCfg, nil
}

// ProvideGraphValidator creates the write-side validator
func ProvideGraphValidator(domainCfg *domainconfig.DomainConfig) *validators.GraphValidator {
	return validators.NewGraphValidator(domainCfg)
}

// ProvideMetrics creates the Prometheus collector. It always exists; the
// router only exposes it when metrics are enabled.
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector()
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("degrees", cfg.EnableTracing)
}

// ProvideCloudWatchPublisher creates the CloudWatch publisher, inert unless enabled.
func ProvideCloudWatchPublisher(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) *observability.CloudWatchPublisher {
	var api observability.CloudWatchAPI
	if cfg.EnableCloudWatch {
		api = client
	}
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	return observability.NewCloudWatchPublisher(namespace, api, logger)
}

// ProvideSearchObserver fans search outcomes out to Prometheus and CloudWatch
func ProvideSearchObserver(metrics *observability.Collector, publisher *observability.CloudWatchPublisher) ports.SearchObserver {
	return ports.SearchObservers{metrics, publisher}
}

// ProvideGraphStore opens the configured backend and decorates it with
// instrumentation and, for remote backends, a circuit breaker.
func ProvideGraphStore(
	ctx context.Context,
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	client *awsdynamodb.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) (ports.GraphStore, error) {
	var base ports.GraphStore
	switch cfg.StoreBackend {
	case config.BackendMemory:
		graph := aggregates.NewGraph()
		graph.AllowDuplicateEdges(domainCfg.AllowDuplicateEdges)
		base = memory.NewGraphStoreFrom(graph)
	case config.BackendSQLite:
		store, err := sqlite.NewGraphStore(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		base = store
	case config.BackendDynamoDB:
		base = dynamodb.NewGraphStore(client, cfg.DynamoDBTable, cfg.KindIndexName, logger)
	case config.BackendNeo4j:
		store, err := neo4j.NewGraphStore(ctx, neo4j.Config{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUsername,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		}, logger)
		if err != nil {
			return nil, err
		}
		base = store
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	breaker := decorators.DefaultCircuitBreakerConfig()
	breaker.MaxRequests = uint32(cfg.BreakerMaxRequests)
	breaker.Timeout = cfg.BreakerTimeout
	breaker.FailureThreshold = cfg.BreakerFailureRatio

	logger.Info("Graph store ready", zap.String("backend", base.Backend()))
	return decorators.Decorate(base, decorators.ChainConfig{
		CircuitBreaker:        cfg.StoreBackend != config.BackendMemory,
		CircuitBreakerOptions: breaker,
		SlowCallThreshold:     cfg.SearchTimeout / 10,
	}, metrics, metrics.SetBreakerState, logger), nil
}

// ProvideJWTValidator creates the token validator. Without a secret no
// tokens are accepted and every caller is anonymous.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	var audience []string
	if cfg.JWTAudience != "" {
		audience = []string{cfg.JWTAudience}
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		Audience:      audience,
	})
}

// ProvideRateLimiter creates the per-client limiter for search routes
func ProvideRateLimiter(cfg *config.Config) *auth.RateLimiter {
	return auth.NewRateLimiter(cfg.RateLimitPerMinute)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	store ports.GraphStore,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	observer ports.SearchObserver,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.LoggingMiddleware(logger))

	handler := queryhandlers.NewJourneyQueryHandler(store, queryhandlers.SearchSettings{
		Limits:      domainCfg.Search,
		Concurrency: cfg.DiscoveryConcurrency,
		Timeout:     cfg.SearchTimeout,
	}, observer, tracer, logger)
	if err := handler.Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(store ports.GraphStore, validator *validators.GraphValidator, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	if err := commandhandlers.NewGraphCommandHandler(store, validator, logger).Register(commandBus); err != nil {
		return nil, err
	}
	return commandBus, nil
}
