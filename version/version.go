package version

// overridden at build time via -ldflags
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var FullVersion = Version + " (" + GitCommit + ", " + BuildDate + ")"
