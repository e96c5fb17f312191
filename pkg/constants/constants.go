// Package constants provides shared constants for the mortgage-calculator application.
package constants

// DateLayout is the format expected for closing dates in requests and is also
// the output date format.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is the day count used for per-diem interest
	DaysPerYear = 365

	// CentPlaces is the number of decimal places kept for currency amounts
	CentPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// PercentEpsilon absorbs float noise when a percentage is compared with a
	// configured tier boundary
	PercentEpsilon = 1e-9
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatJSON is the machine-readable output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultTablesFile is the default rate table file name
	DefaultTablesFile = "tables.yaml"

	// EnvPrefix prefixes every environment override, e.g. MORTGAGE_SERVER_ADDRESS
	EnvPrefix = "MORTGAGE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum request body size (64 KB)
	DefaultMaxRequestSizeBytes int64 = 64 * 1024

	// DefaultRequestsPerSecond is the default sustained per-client request rate
	DefaultRequestsPerSecond = 10.0

	// DefaultBurst is the default per-client burst size
	DefaultBurst = 30
)

// Refinance guidance thresholds, in LTV percent.
var GuidanceLTVTargets = []float64{80, 90, 95}

// MaxFinancingIterations bounds the fixed-point solve used when closing costs
// are rolled into the loan amount.
const MaxFinancingIterations = 25
