// Package exitcodes defines the standard exit codes used by ritm-acceptor.
package exitcodes

// Exit code constants used by ritm-acceptor
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the payload run reaches the passing verdict
// * VerdictFailure (1): Used for build failures and all non-passing verdicts
// * RuntimeErr (2): Used for runtime errors such as bad configuration or a
// subordinate that could not be spawned
const (
	Success        = 0 // Payload passed
	VerdictFailure = 1 // Build failure or failed/timed-out/marker-less verdict
	RuntimeErr     = 2 // Runtime errors
)
