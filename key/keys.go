// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// API Endpoint - these keys locate the ARSU backend and its stream route.
const (
	APIURL        = "api.url"
	APIStreamPath = "api.stream_path"
	APITimeout    = "api.timeout"
)

// Session - these keys govern the lifetime of the logged-in user context.
const (
	SessionLifetime = "session.lifetime_hours"
)

// Media Playback - these keys configure the media element and the segmented-streaming engine.
const (
	Player         = "player.default"
	PlayerQuality  = "player.quality"
	PlayerAutoplay = "player.autoplay"
	PlayerEngine   = "player.engine"
)

// Catalog - these keys configure the locally cached video listing.
const (
	CatalogLifetime = "catalog.lifetime_minutes"
)

// History Tracking - these keys configure the persistence of watched videos.
const (
	HistorySaveOnPlay = "history.save_on_play"
)

// Metrics - these keys expose playback counters over HTTP.
const (
	MetricsListen = "metrics.listen"
)

// Iconography.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment.
const (
	CliColored = "cli.colored"
)
