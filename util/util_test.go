package util

import (
	"testing"

	"github.com/arsu-cli/arsu/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "video", "videos"), ShouldEqual, "1 video")
		So(Quantify(3, "video", "videos"), ShouldEqual, "3 videos")
		So(Quantify(0, "video", "videos"), ShouldEqual, "0 videos")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("history file"), ShouldEqual, "History file")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFormatClock(t *testing.T) {
	Convey("FormatClock", t, func() {
		So(FormatClock(0), ShouldEqual, "0:00")
		So(FormatClock(75), ShouldEqual, "1:15")
		So(FormatClock(3725), ShouldEqual, "1:02:05")
		So(FormatClock(-4), ShouldEqual, "0:00")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given an in-memory file tree", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		So(fs.MkdirAll("/tmp/arsu/cache", 0o755), ShouldBeNil)
		So(fs.WriteFile("/tmp/arsu/cache/catalog.json", []byte("{}"), 0o644), ShouldBeNil)

		Convey("Delete removes a single file", func() {
			So(Delete("/tmp/arsu/cache/catalog.json"), ShouldBeNil)
			exists, _ := fs.Exists("/tmp/arsu/cache/catalog.json")
			So(exists, ShouldBeFalse)
		})

		Convey("Delete removes a directory recursively", func() {
			So(Delete("/tmp/arsu"), ShouldBeNil)
			exists, _ := fs.DirExists("/tmp/arsu")
			So(exists, ShouldBeFalse)
		})

		Convey("Delete reports a missing path", func() {
			So(Delete("/nope"), ShouldNotBeNil)
		})
	})
}
