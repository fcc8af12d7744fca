package network

import (
	"context"
	"net/http"
	"testing"

	"github.com/arsu-cli/arsu/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewRequest(t *testing.T) {
	Convey("NewRequest", t, func() {
		Convey("Should set the user agent", func() {
			req, err := NewRequest(context.Background(), http.MethodGet, "http://localhost/api/videos/all", nil)
			So(err, ShouldBeNil)
			So(req.Header.Get("User-Agent"), ShouldEqual, constant.UserAgent)
		})

		Convey("Should reject a malformed URL", func() {
			_, err := NewRequest(context.Background(), http.MethodGet, "http://[::1", nil)
			So(err, ShouldNotBeNil)
		})
	})
}
