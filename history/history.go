// Package history records which videos were played and at what quality.
package history

import (
	"sort"
	"time"

	"github.com/arsu-cli/arsu/filesystem"
	"github.com/arsu-cli/arsu/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
)

// Entry is one watched video. Replaying a video replaces its entry.
type Entry struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Quality  string    `json:"quality"`
	PlayedAt time.Time `json:"played_at"`
}

func (e *Entry) String() string {
	if e.Title == "" {
		return e.ID
	}
	return e.Title
}

var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every entry keyed by video ID.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// List returns the entries, most recently played first.
func List() ([]*Entry, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	entries := lo.Values(saved)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PlayedAt.After(entries[j].PlayedAt)
	})
	return entries, nil
}

// Save records that the video was played now.
func Save(id, title, quality string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	saved[id] = &Entry{
		ID:       id,
		Title:    title,
		Quality:  quality,
		PlayedAt: time.Now(),
	}

	return cacher.Set(saved)
}

// Last returns the most recently played entry.
func Last() (*Entry, bool, error) {
	entries, err := List()
	if err != nil || len(entries) == 0 {
		return nil, false, err
	}
	return entries[0], true, nil
}

// Remove deletes the entry for id.
func Remove(id string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, id)
	return cacher.Set(saved)
}

// Clear deletes every entry.
func Clear() error {
	return cacher.Set(make(map[string]*Entry))
}
