package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendNeo4j    = "neo4j"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress      string   `yaml:"server_address"`
	Environment        string   `yaml:"environment"`
	LogLevel           string   `yaml:"log_level"`
	EnableCORS         bool     `yaml:"enable_cors"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Storage
	StoreBackend string `yaml:"store_backend"`
	SQLitePath   string `yaml:"sqlite_path"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"table_name"`
	KindIndexName string `yaml:"kind_index_name"`

	// Neo4j
	Neo4jURI      string `yaml:"neo4j_uri"`
	Neo4jUsername string `yaml:"neo4j_username"`
	Neo4jPassword string `yaml:"neo4j_password"`
	Neo4jDatabase string `yaml:"neo4j_database"`

	// Fixture loaded at startup when set
	SeedFile string `yaml:"seed_file"`

	// Authentication
	JWTSecret   string `yaml:"jwt_secret"`
	JWTIssuer   string `yaml:"jwt_issuer"`
	JWTAudience string `yaml:"jwt_audience"`

	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// Search
	SearchTimeout        time.Duration `yaml:"search_timeout"`
	DiscoveryConcurrency int           `yaml:"discovery_concurrency"`

	// Circuit breaker
	BreakerMaxRequests  int           `yaml:"breaker_max_requests"`
	BreakerTimeout      time.Duration `yaml:"breaker_timeout"`
	BreakerFailureRatio float64       `yaml:"breaker_failure_ratio"`

	// Feature flags
	EnableMetrics    bool   `yaml:"enable_metrics"`
	EnableTracing    bool   `yaml:"enable_tracing"`
	EnableCloudWatch bool   `yaml:"enable_cloudwatch"`
	MetricsNamespace string `yaml:"metrics_namespace"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		ServerAddress:        ":8080",
		Environment:          "development",
		LogLevel:             "info",
		EnableCORS:           true,
		CORSAllowedOrigins:   []string{"*"},
		StoreBackend:         BackendMemory,
		SQLitePath:           "degrees.db",
		AWSRegion:            "us-west-2",
		DynamoDBTable:        "degrees",
		KindIndexName:        "GSI1",
		Neo4jDatabase:        "neo4j",
		JWTIssuer:            "degrees",
		RateLimitPerMinute:   120,
		SearchTimeout:        10 * time.Second,
		DiscoveryConcurrency: 4,
		BreakerMaxRequests:   5,
		BreakerTimeout:       15 * time.Second,
		BreakerFailureRatio:  0.6,
		EnableMetrics:        true,
		MetricsNamespace:     "Degrees",
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file
// named by CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", c.DynamoDBTable)
	c.KindIndexName = getEnv("KIND_INDEX_NAME", c.KindIndexName)

	c.Neo4jURI = getEnv("NEO4J_URI", c.Neo4jURI)
	c.Neo4jUsername = getEnv("NEO4J_USERNAME", c.Neo4jUsername)
	c.Neo4jPassword = getEnv("NEO4J_PASSWORD", c.Neo4jPassword)
	c.Neo4jDatabase = getEnv("NEO4J_DATABASE", c.Neo4jDatabase)

	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTAudience = getEnv("JWT_AUDIENCE", c.JWTAudience)

	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)

	c.SearchTimeout = getEnvDuration("SEARCH_TIMEOUT", c.SearchTimeout)
	c.DiscoveryConcurrency = getEnvInt("DISCOVERY_CONCURRENCY", c.DiscoveryConcurrency)

	c.BreakerMaxRequests = getEnvInt("BREAKER_MAX_REQUESTS", c.BreakerMaxRequests)
	c.BreakerTimeout = getEnvDuration("BREAKER_TIMEOUT", c.BreakerTimeout)
	c.BreakerFailureRatio = getEnvFloat("BREAKER_FAILURE_RATIO", c.BreakerFailureRatio)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCloudWatch = getEnvBool("ENABLE_CLOUDWATCH", c.EnableCloudWatch)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoDBTable == "" || c.KindIndexName == "" {
			return fmt.Errorf("TABLE_NAME and KIND_INDEX_NAME are required for the dynamodb backend")
		}
	case BackendNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required for the neo4j backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.DiscoveryConcurrency <= 0 {
		return fmt.Errorf("DISCOVERY_CONCURRENCY must be positive")
	}
	if c.BreakerMaxRequests <= 0 || c.BreakerTimeout <= 0 {
		return fmt.Errorf("circuit breaker settings must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1]")
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("750ms", "10s").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
