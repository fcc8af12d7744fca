package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBackend(t *testing.T) {
	Convey("Filesystem backend", t, func() {
		Convey("Should default to the OS", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to memory", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})
	})
}

func TestGacheFs(t *testing.T) {
	Convey("Given the gache adapter over memory", t, func() {
		SetMemMapFs()
		var fs GacheFs

		Convey("Writes should land on the active backend", func() {
			So(fs.MkdirAll("/cache", 0o755), ShouldBeNil)

			f, err := fs.OpenFile("/cache/history.json", os.O_CREATE|os.O_RDWR, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte(`{}`))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			data, err := API().ReadFile("/cache/history.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{}`)
		})
	})
}
