package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph int
	MaxEdgesPerGraph int
	DefaultGraphName string

	// Performance limits
	MaxPropagationFrontier int

	// Node constraints
	MaxTitleLength int
	MinTitleLength int

	// Edge constraints
	MaxEdgeWeight     float64
	MinEdgeWeight     float64
	DefaultEdgeWeight float64

	// Scheduling defaults
	DefaultPreset           string
	DefaultHorizonDays      int
	DefaultPropagationDepth int
	DefaultWeakThreshold    float64
	FirstRevisionLeadTime   time.Duration

	// Validation settings
	AllowDuplicateEdges bool

	// Feature flags
	EnableAsyncPropagation bool
	EnableQueueMemoization bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerGraph: 10000,
		MaxEdgesPerGraph: 50000,
		DefaultGraphName: "Knowledge Graph",

		MaxPropagationFrontier: 2000,

		MaxTitleLength: 200,
		MinTitleLength: 1,

		MaxEdgeWeight:     1.0,
		MinEdgeWeight:     0.0,
		DefaultEdgeWeight: 0.5,

		DefaultPreset:           "balanced",
		DefaultHorizonDays:      7,
		DefaultPropagationDepth: 2,
		DefaultWeakThreshold:    0.4,
		FirstRevisionLeadTime:   24 * time.Hour,

		// Edges are user-editable in the UI and duplicates are not
		// enforced there; the graph is a multigraph.
		AllowDuplicateEdges: true,

		EnableAsyncPropagation: false,
		EnableQueueMemoization: true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerGraph = 5000
	config.MaxEdgesPerGraph = 25000
	config.EnableAsyncPropagation = true

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerGraph = 100000
	config.MaxEdgesPerGraph = 500000
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
