// Package catalog caches the video listing and resolves user queries against it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arsu-cli/arsu/api"
	"github.com/arsu-cli/arsu/filesystem"
	"github.com/arsu-cli/arsu/key"
	"github.com/arsu-cli/arsu/log"
	"github.com/arsu-cli/arsu/where"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

var ErrNotFound = errors.New("no video matches")

// Lister is the part of the API client the catalog needs.
type Lister interface {
	Videos(ctx context.Context) ([]api.Video, error)
}

// the lifetime comes from config, so the cache is built on first use
var cacher = sync.OnceValue(func() *gache.Cache[[]api.Video] {
	return gache.New[[]api.Video](&gache.Options{
		Path:       where.Catalog(),
		Lifetime:   time.Duration(viper.GetInt(key.CatalogLifetime)) * time.Minute,
		FileSystem: &filesystem.GacheFs{},
	})
})

// Cached returns the stored listing, if it has not expired.
func Cached() ([]api.Video, bool, error) {
	videos, expired, err := cacher().Get()
	if err != nil {
		return nil, false, err
	}
	if expired || videos == nil {
		return nil, false, nil
	}
	return videos, true, nil
}

// Store replaces the stored listing.
func Store(videos []api.Video) error {
	return cacher().Set(videos)
}

// Clear forgets the stored listing.
func Clear() error {
	return Store(nil)
}

// Load returns the cached listing, fetching it when stale or when force is set.
func Load(ctx context.Context, l Lister, force bool) ([]api.Video, error) {
	if !force {
		videos, ok, err := Cached()
		if err != nil {
			log.Warnf("catalog cache: %v", err)
		}
		if ok {
			return videos, nil
		}
	}

	videos, err := l.Videos(ctx)
	if err != nil {
		return nil, err
	}

	if err := Store(videos); err != nil {
		log.Warnf("catalog store: %v", err)
	}
	return videos, nil
}

// Find resolves query to one video: an exact ID, then an exact title, then
// the closest fuzzy title match.
func Find(videos []api.Video, query string) mo.Option[api.Video] {
	query = strings.TrimSpace(query)
	if query == "" {
		return mo.None[api.Video]()
	}

	if v, ok := lo.Find(videos, func(v api.Video) bool { return v.ID == query }); ok {
		return mo.Some(v)
	}

	if v, ok := lo.Find(videos, func(v api.Video) bool { return strings.EqualFold(v.Title, query) }); ok {
		return mo.Some(v)
	}

	if matches := Search(videos, query); len(matches) > 0 {
		return mo.Some(matches[0])
	}
	return mo.None[api.Video]()
}

// Search returns the videos whose title fuzzily contains query, closest first.
func Search(videos []api.Video, query string) []api.Video {
	titles := lo.Map(videos, func(v api.Video, _ int) string { return v.Title })

	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(query), titles)
	sort.Stable(ranks)

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) api.Video { return videos[r.OriginalIndex] })
}

// Lookup finds query in the cached listing, refreshing it once on a miss.
func Lookup(ctx context.Context, l Lister, query string) (api.Video, error) {
	videos, err := Load(ctx, l, false)
	if err != nil {
		return api.Video{}, err
	}

	if v, ok := Find(videos, query).Get(); ok {
		return v, nil
	}

	videos, err = Load(ctx, l, true)
	if err != nil {
		return api.Video{}, err
	}

	v, ok := Find(videos, query).Get()
	if !ok {
		return api.Video{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return v, nil
}
