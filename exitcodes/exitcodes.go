// Package exitcodes defines the standard exit codes used by testmeta.
package exitcodes

// Exit code constants used by the CLI to indicate how the observed session
// and the ingestion itself went:
//
// * Success (0): Used when the observed session recorded no failures
// * TestFailure (1): Used when the session recorded failed or errored tests
// * RuntimeErr (2): Used for runtime errors such as unreadable event
//   streams or unwritable export paths
const (
	Success     = 0 // Observed session clean
	TestFailure = 1 // Observed session recorded failures
	RuntimeErr  = 2 // Runtime errors
)
