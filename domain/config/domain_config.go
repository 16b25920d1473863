package config

import (
	"errors"
	"fmt"
)

// SearchLimits holds the caps and thresholds of the journey engine.
type SearchLimits struct {
	// Exploratory journey finder
	ExplorerMaxVisited    int
	ExplorerMaxIterations int

	// Shortest-path finder
	PathMaxVisited    int
	PathMaxIterations int
	ShuffleInterval   int

	// Discovery orchestrator
	DiscoveryAttempts int

	// A candidate scoring above EarlyExitScore at EarlyExitDegree or deeper ends the search.
	EarlyExitScore  int
	EarlyExitDegree int

	// Acceptance filter
	MinAcceptableScore int
	MaxJourneyNodes    int
}

// DefaultSearchLimits returns the standard engine limits.
func DefaultSearchLimits() SearchLimits {
	return SearchLimits{
		ExplorerMaxVisited:    1000,
		ExplorerMaxIterations: 1000,

		PathMaxVisited:    2000,
		PathMaxIterations: 2000,
		ShuffleInterval:   50,

		DiscoveryAttempts: 20,

		EarlyExitScore:  100,
		EarlyExitDegree: 4,

		MinAcceptableScore: 20,
		MaxJourneyNodes:    10,
	}
}

// Validate checks that every cap is usable.
func (l SearchLimits) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"ExplorerMaxVisited", l.ExplorerMaxVisited},
		{"ExplorerMaxIterations", l.ExplorerMaxIterations},
		{"PathMaxVisited", l.PathMaxVisited},
		{"PathMaxIterations", l.PathMaxIterations},
		{"ShuffleInterval", l.ShuffleInterval},
		{"DiscoveryAttempts", l.DiscoveryAttempts},
		{"MaxJourneyNodes", l.MaxJourneyNodes},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", c.name, c.value)
		}
	}
	if l.MinAcceptableScore < 0 || l.EarlyExitScore < 0 || l.EarlyExitDegree < 0 {
		return errors.New("score thresholds cannot be negative")
	}
	return nil
}

// DomainConfig holds the business rules applied when the graph is written.
type DomainConfig struct {
	// Node constraints
	MinNameLength int
	MaxNameLength int

	// Edge constraints
	AllowDuplicateEdges bool

	// Import constraints
	MaxImportNodes int
	MaxImportEdges int

	Search SearchLimits
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MinNameLength: 1,
		MaxNameLength: 300,

		AllowDuplicateEdges: false,

		MaxImportNodes: 50000,
		MaxImportEdges: 200000,

		Search: DefaultSearchLimits(),
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Imports run inside a request in production
	config.MaxImportNodes = 10000
	config.MaxImportEdges = 40000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.AllowDuplicateEdges = true
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MinNameLength < 1 || c.MaxNameLength < c.MinNameLength {
		return fmt.Errorf("invalid name length bounds %d..%d", c.MinNameLength, c.MaxNameLength)
	}
	if c.MaxImportNodes <= 0 || c.MaxImportEdges <= 0 {
		return errors.New("import limits must be positive")
	}
	return c.Search.Validate()
}
