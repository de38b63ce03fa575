package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no workspace, invalid config)
	ExitNotFound    = 3 // Paper or tree root not found
	ExitAPIError    = 4 // Remote API failure
	ExitDataError   = 5 // Data error (unreadable PDF, no DOI found)
)
