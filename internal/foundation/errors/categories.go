package errors

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryNetwork represents failures talking to the release manifest host.
	CategoryNetwork   ErrorCategory = "network"
	CategoryTransport ErrorCategory = "transport"

	// CategoryState represents persisted-state read/write failures.
	CategoryState ErrorCategory = "state"

	// CategoryInternal represents programming errors such as missing wiring.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal ErrorSeverity = "fatal" // Stops execution completely
	SeverityError ErrorSeverity = "error" // Fails the current operation
)

// RetryStrategy indicates how an error should be handled in retry scenarios.
// Runs never retry internally; the strategy tells the operator whether the
// next scheduled run is expected to succeed.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"    // Permanent failure
	RetryNextRun    RetryStrategy = "next_run" // Transient, the next invocation may succeed
	RetryUserAction RetryStrategy = "user"     // Requires user intervention
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}
