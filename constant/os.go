package constant

// Platform identifiers compared against runtime.GOOS when suggesting player installs.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
