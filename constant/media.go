package constant

// Media types negotiated with the playback element.
const (
	MimeHLS    = "application/vnd.apple.mpegurl"
	MimeMPEGTS = "video/mp2t"
	MimeMP4    = "video/mp4"
)

// API routes exposed by the ARSU backend.
const (
	RouteStream   = "/api/videos/stream"
	RouteVideos   = "/api/videos/all"
	RouteUpload   = "/api/videos/upload"
	RouteLogin    = "/api/users/login"
	RouteRegister = "/api/users/register"
)

// Routes the backend exposes besides the core ones.
const (
	RouteUserVideos = "/api/videos/user"
	RouteComments   = "/api/comments/video"
	RouteAddComment = "/api/comments/add"
)
