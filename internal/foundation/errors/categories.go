package errors

// Category represents the broad category of an error for classification and routing.
type Category string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig Category = "config"

	// CategoryStructural represents defects in the master document skeleton
	// (missing or duplicated document markers). Always fatal before any pass.
	CategoryStructural Category = "structural"

	// CategoryFetch represents a store read miss. Fatal only for the master
	// document itself; probed fragments and support files absorb it.
	CategoryFetch Category = "fetch"

	// CategoryToolchain represents a non-zero exit from an external build
	// pass. Recorded, never aborts the pass sequence.
	CategoryToolchain Category = "toolchain"

	// CategoryArtifact represents the expected output file being absent after
	// all passes. The sole build-failure condition.
	CategoryArtifact Category = "artifact"

	// CategoryPublish represents a store write error during publishing.
	CategoryPublish Category = "publish"

	// CategoryStore represents store adapter failures other than a plain miss.
	CategoryStore Category = "store"

	// CategoryInternal represents programming errors and broken invariants.
	CategoryInternal Category = "internal"
)

// Severity indicates the impact level of an error.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Stops the pipeline
	SeverityError   Severity = "error"   // Fails the current stage
	SeverityWarning Severity = "warning" // Absorbed, pipeline continues
)
