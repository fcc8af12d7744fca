package stream

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/key"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// ErrInvalidResource is returned when a stream is requested without a resource id.
// No network or playback attempt may follow it.
var ErrInvalidResource = errors.New("invalid resource")

// qualityParam is the query parameter carrying the tier.
const qualityParam = "quality"

// Request names a resource and the tier to stream it at.
type Request struct {
	ResourceID string
	Quality    Quality
}

// Resolver builds stream endpoint URLs. The zero value yields origin-relative
// URLs under the default stream route.
type Resolver struct {
	// Origin is prefixed to the path, e.g. "http://localhost:8080". Optional.
	Origin string
	// BasePath is the stream route. Defaults to constant.RouteStream.
	BasePath string
}

// NewResolver builds a Resolver from the configured API origin and stream path.
func NewResolver() Resolver {
	return Resolver{
		Origin:   viper.GetString(key.APIURL),
		BasePath: viper.GetString(key.APIStreamPath),
	}
}

// Resolve returns <origin><base>/<resourceID>?quality=<tier>. It performs no I/O.
func (r Resolver) Resolve(resourceID string, quality Quality) (string, error) {
	id := strings.TrimSpace(resourceID)
	if id == "" {
		return "", ErrInvalidResource
	}

	if !quality.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownQuality, string(quality))
	}

	base := r.BasePath
	if base == "" {
		base = constant.RouteStream
	}
	base = "/" + strings.Trim(base, "/")

	query := url.Values{qualityParam: []string{quality.String()}}
	return strings.TrimRight(r.Origin, "/") + base + "/" + url.PathEscape(id) + "?" + query.Encode(), nil
}

// ResolveRequest is Resolve for a Request value.
func (r Resolver) ResolveRequest(req Request) (string, error) {
	return r.Resolve(req.ResourceID, req.Quality)
}

// Resolve uses the configured resolver.
func Resolve(resourceID string, quality Quality) (string, error) {
	return NewResolver().Resolve(resourceID, quality)
}

// QualityOf extracts the tier from a resolved stream URL.
func QualityOf(src string) mo.Option[Quality] {
	u, err := url.Parse(src)
	if err != nil {
		return mo.None[Quality]()
	}

	q, err := ParseQuality(u.Query().Get(qualityParam))
	if err != nil {
		return mo.None[Quality]()
	}
	return mo.Some(q)
}
