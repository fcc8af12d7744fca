// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Arsu is the canonical application identifier used for filesystem paths and CLI branding.
	Arsu = "arsu"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is sent with every request to the ARSU API and stream origins.
	UserAgent = "arsu-cli/" + Version
)

// Build metadata, injected with -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// Logo is printed above the root command help.
const Logo = `
   __ _ _ __ ___ _   _
  / _' | '__/ __| | | |
 | (_| | |  \__ \ |_| |
  \__,_|_|  |___/\__,_|`
