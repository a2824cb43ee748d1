// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the
// application. These constants provide sensible defaults for configuration
// settings and establish boundaries for resource usage. Changes to these
// values may significantly impact application behavior and performance.
package constants

// Default Pool Values define the connection pool shape when not configured.
const (
	// DefaultDBPoolSize is the number of connections created per logical
	// database. The pool never allocates beyond this bound; checkout blocks
	// instead.
	DefaultDBPoolSize = 5
)

// Default Search Values define the candidate search behavior when a searcher
// has no stored filter preferences. Absence of a filter value always means
// "no constraint", never "exclude everything".
const (
	// DefaultSearchLimit is the number of candidates returned per search.
	DefaultSearchLimit = 20

	// MaxSearchLimit caps a caller-requested candidate limit.
	MaxSearchLimit = 100

	// DefaultMinCompatibility is the minimum weighted compatibility score
	// (0-100) a candidate must reach when the searcher has not chosen one.
	DefaultMinCompatibility = 30

	// TopBracketScanLimit caps the raw rating-ordered scan used by the
	// top-bracket ranking mode before privacy and limit logic apply.
	TopBracketScanLimit = 1000
)

// Default Configuration Values define fallback settings when not specified in
// configuration.
const (
	// DefaultServerPort is the default ops HTTP server port.
	DefaultServerPort = 8080

	// DefaultConfigPath is where the entry point looks for the YAML
	// configuration when no -config flag is given.
	DefaultConfigPath = "./configs/config.yaml"

	// DefaultMainDBPath is the default path of the main SQLite database file.
	DefaultMainDBPath = "data/bot.db"

	// DefaultCacheDBPath is the default path of the cache SQLite database file.
	DefaultCacheDBPath = "data/cache.db"

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"

	// DefaultRedisAddr is the default Redis address for the read cache.
	DefaultRedisAddr = "localhost:6379"
)

// Moderation Listing Values bound the moderation review queue queries.
const (
	// DefaultModerationQueueLimit is the number of pending profiles fetched
	// per review page.
	DefaultModerationQueueLimit = 10
)

// Environment Names identify the runtime environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Logging Values used when redacting query arguments.
const (
	// LogRedactedValue replaces sensitive argument values in query logs.
	LogRedactedValue = "[REDACTED]"
)
