package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/arsu-cli/arsu/api"
	"github.com/arsu-cli/arsu/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

type lister struct {
	videos []api.Video
	calls  int
	err    error
}

func (l *lister) Videos(context.Context) ([]api.Video, error) {
	l.calls++
	return l.videos, l.err
}

var sample = []api.Video{
	{ID: "abc123", Title: "Big Buck Bunny"},
	{ID: "def456", Title: "Sintel"},
	{ID: "ghi789", Title: "Tears of Steel"},
}

func TestFind(t *testing.T) {
	Convey("Given a listing", t, func() {
		Convey("An id should match exactly", func() {
			v, ok := Find(sample, "def456").Get()
			So(ok, ShouldBeTrue)
			So(v.Title, ShouldEqual, "Sintel")
		})

		Convey("A title should match regardless of case", func() {
			v, ok := Find(sample, "sintel").Get()
			So(ok, ShouldBeTrue)
			So(v.ID, ShouldEqual, "def456")
		})

		Convey("A partial title should match fuzzily", func() {
			v, ok := Find(sample, "bunny").Get()
			So(ok, ShouldBeTrue)
			So(v.ID, ShouldEqual, "abc123")
		})

		Convey("Nothing should match garbage or blanks", func() {
			So(Find(sample, "zzzz").IsAbsent(), ShouldBeTrue)
			So(Find(sample, "  ").IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("Search should rank closer titles first", t, func() {
		videos := []api.Video{
			{ID: "1", Title: "Steel Tears of the Long Night"},
			{ID: "2", Title: "Tears of Steel"},
		}
		found := Search(videos, "tearsofsteel")
		So(found, ShouldHaveLength, 1)
		So(found[0].ID, ShouldEqual, "2")
	})
}

func TestLoad(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		So(Clear(), ShouldBeNil)
		l := &lister{videos: sample}

		Convey("Load should fetch once and then serve the cache", func() {
			videos, err := Load(context.Background(), l, false)
			So(err, ShouldBeNil)
			So(videos, ShouldHaveLength, 3)

			videos, err = Load(context.Background(), l, false)
			So(err, ShouldBeNil)
			So(videos, ShouldHaveLength, 3)
			So(l.calls, ShouldEqual, 1)
		})

		Convey("Force should always fetch", func() {
			_, _ = Load(context.Background(), l, false)
			_, _ = Load(context.Background(), l, true)
			So(l.calls, ShouldEqual, 2)
		})

		Convey("Lookup should refresh once on a miss", func() {
			So(Store(sample[:1]), ShouldBeNil)

			v, err := Lookup(context.Background(), l, "Sintel")
			So(err, ShouldBeNil)
			So(v.ID, ShouldEqual, "def456")
			So(l.calls, ShouldEqual, 1)

			_, err = Lookup(context.Background(), l, "nothing like it")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("A failing backend should surface its error", func() {
			l.err = errors.New("down")
			_, err := Load(context.Background(), l, true)
			So(err, ShouldNotBeNil)
		})
	})
}
