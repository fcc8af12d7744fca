package history

import (
	"testing"
	"time"

	"github.com/arsu-cli/arsu/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given an empty history", t, func() {
		So(Clear(), ShouldBeNil)

		Convey("When saving a video", func() {
			err := Save("abc123", "Big Buck Bunny", "480p")
			Convey("Then the error should be nil", func() {
				So(err, ShouldBeNil)

				Convey("And the video should be saved", func() {
					entries, err := Get()
					So(err, ShouldBeNil)
					So(entries["abc123"].Title, ShouldEqual, "Big Buck Bunny")
					So(entries["abc123"].Quality, ShouldEqual, "480p")
				})
			})
		})

		Convey("When saving several videos", func() {
			So(Save("a", "A", "240p"), ShouldBeNil)
			time.Sleep(5 * time.Millisecond)
			So(Save("b", "B", "720p"), ShouldBeNil)
			time.Sleep(5 * time.Millisecond)
			So(Save("a", "A", "1080p"), ShouldBeNil)

			Convey("List should be newest first without duplicates", func() {
				entries, err := List()
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].ID, ShouldEqual, "a")
				So(entries[0].Quality, ShouldEqual, "1080p")
				So(entries[1].ID, ShouldEqual, "b")
			})

			Convey("Last should be the latest", func() {
				last, ok, err := Last()
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(last.ID, ShouldEqual, "a")
			})

			Convey("Remove should drop one entry", func() {
				So(Remove("a"), ShouldBeNil)
				entries, _ := List()
				So(entries, ShouldHaveLength, 1)
				So(entries[0].ID, ShouldEqual, "b")
			})
		})

		Convey("Last on an empty history should report nothing", func() {
			_, ok, err := Last()
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}
