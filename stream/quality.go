// Package stream resolves playable stream endpoints from resource identifiers and quality tiers.
package stream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Quality is a discrete resolution tier the stream endpoint can serve.
type Quality string

const (
	Q240p  Quality = "240p"
	Q480p  Quality = "480p"
	Q720p  Quality = "720p"
	Q1080p Quality = "1080p"
)

// DefaultQuality is requested when nothing else is configured.
const DefaultQuality = Q720p

// ErrUnknownQuality is returned for tiers outside the supported set.
var ErrUnknownQuality = errors.New("unknown quality tier")

var (
	qualities = []Quality{Q240p, Q480p, Q720p, Q1080p}
	heights   = map[Quality]int{Q240p: 240, Q480p: 480, Q720p: 720, Q1080p: 1080}
)

// Qualities returns the supported tiers, lowest first.
func Qualities() []Quality {
	return append([]Quality(nil), qualities...)
}

// ParseQuality accepts "720p", "720P" or " 720p ".
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if !q.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownQuality, s)
	}
	return q, nil
}

// Valid reports whether q is one of the supported tiers.
func (q Quality) Valid() bool {
	return lo.Contains(qualities, q)
}

// Height is the vertical resolution of the tier, 0 when invalid.
func (q Quality) Height() int {
	return heights[q]
}

// Next cycles to the following tier, wrapping to the lowest.
func (q Quality) Next() Quality {
	i := lo.IndexOf(qualities, q)
	return qualities[(i+1)%len(qualities)]
}

func (q Quality) String() string {
	return string(q)
}
