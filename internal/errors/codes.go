package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Platform errors
	ErrWakeupConfig       ErrorCode = "wakeup_configuration_failed"
	ErrSleepEntry         ErrorCode = "sleep_entry_failed"
	ErrClockRead          ErrorCode = "clock_read_failed"
	ErrUnknownWakeupCause ErrorCode = "unknown_wakeup_cause"
	ErrUnsupported        ErrorCode = "platform_unsupported"

	// Application errors
	ErrInitApp   ErrorCode = "init_app_failed"
	ErrMainLoop  ErrorCode = "main_loop_failed"
	ErrConsole   ErrorCode = "console_write_failed"
	ErrTimeout   ErrorCode = "operation_timeout"
	ErrRecordRun ErrorCode = "record_cycle_failed"

	// Metrics errors
	ErrInitMetrics  ErrorCode = "init_metrics_failed"
	ErrCloseMetrics ErrorCode = "close_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:           "Internal error occurred",
	ErrInvalidArgument:    "Invalid argument provided",
	ErrNotImplemented:     "Operation not implemented",
	ErrAlreadyRunning:     "Another instance is already running",
	ErrInvalidConfig:      "Invalid configuration",
	ErrBindFlags:          "Failed to bind flags",
	ErrReadConfig:         "Failed to read config file",
	ErrInvalidInterval:    "Invalid wakeup interval",
	ErrInvalidLogLevel:    "Invalid log level",
	ErrInitFailed:         "Initialization failed",
	ErrShutdownFailed:     "Shutdown failed",
	ErrWakeupConfig:       "Failed to configure timer wakeup",
	ErrSleepEntry:         "Failed to enter light sleep",
	ErrClockRead:          "Failed to read monotonic clock",
	ErrUnknownWakeupCause: "Failed to determine wakeup cause",
	ErrUnsupported:        "Platform not supported on this system",
	ErrInitApp:            "Failed to initialize application",
	ErrMainLoop:           "Error in main loop",
	ErrConsole:            "Failed to write console output",
	ErrTimeout:            "Operation timed out",
	ErrRecordRun:          "Failed to record sleep cycle",
	ErrInitMetrics:        "Failed to initialize metrics",
	ErrCloseMetrics:       "Failed to close metrics connection",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
