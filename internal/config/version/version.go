package version

// Package metadata information, used for versioning and report generation.
// CI replaces these variables during the release build.
var (
	Version      = "0.1.0"           // Version of the dependency scanner
	Toolname     = "pkg-depscan-dev" // Name of the tool
	Organization = "unknown"         // Organization that built the tool
	BuildDate    = "unknown"         // Date when the tool was built
	CommitSHA    = "unknown"         // Commit SHA of the tool
)
