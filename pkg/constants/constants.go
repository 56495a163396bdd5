package constants

import "time"

// Application constants
const (
	// Application metadata
	AppName        = "tabanon"
	AppDescription = "Tabular Dataset Anonymization Engine"
	AppVersion     = "0.1.0"

	// API constants
	APIVersion = "v1"
	APIPrefix  = "/api/v1"

	// Default configuration values
	DefaultPort            = 8080
	DefaultMetricsPort     = 9090
	DefaultHost            = "0.0.0.0"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	MaxRequestSize         = 33554432 // 32MB, anonymization requests carry the dataset inline

	// Anonymization defaults
	DefaultK                = 2
	DefaultSuppressionLevel = 0.0
	DefaultTCloseness       = 0.5
	DefaultBetaLikeness     = 1.0

	// Suppressed / masked cell marker
	SuppressedValue = "*"
)

// Anonymization method names as accepted by the CLI and the API
const (
	MethodKAnonymity   = "k-anonymity"
	MethodTCloseness   = "t-closeness"
	MethodBasicBeta    = "basic-beta-likeness"
	MethodEnhancedBeta = "enhanced-beta-likeness"
)

// HTTP headers
const (
	HeaderContentType = "Content-Type"
	HeaderRequestID   = "X-Request-ID"
)

// Content types
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
)
