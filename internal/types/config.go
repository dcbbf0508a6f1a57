package types

type RunMode string

const (
	// ModeLocal runs the API server and the temporal worker in one process
	ModeLocal RunMode = "local"
	// ModeAPI runs just the cron API server
	ModeAPI RunMode = "api"
	// ModeTemporalWorker runs just the temporal worker
	ModeTemporalWorker RunMode = "temporal_worker"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ProrationPolicy decides how a partial billing cycle is charged
type ProrationPolicy string

const (
	// ProrationPolicyNone always charges the flat lease amount
	ProrationPolicyNone ProrationPolicy = "none"
	// ProrationPolicyDaily charges (days covered / days in cycle) of the lease amount
	ProrationPolicyDaily ProrationPolicy = "daily"
)
