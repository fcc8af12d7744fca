package auth

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

func TestSession(t *testing.T) {
	Convey("Given no stored session", t, func() {
		So(End(), ShouldBeNil)

		Convey("Current should report it", func() {
			_, err := Current()
			So(err, ShouldEqual, ErrNoSession)
		})

		Convey("When a session begins", func() {
			s := NewSession("aryan", "u1", "tok", time.Hour)
			So(Begin(s), ShouldBeNil)

			Convey("It should be the current one", func() {
				cur, err := Current()
				So(err, ShouldBeNil)
				So(cur.Username, ShouldEqual, "aryan")
				So(cur.UserID, ShouldEqual, "u1")
				So(cur.Authorization(), ShouldEqual, "Bearer tok")
			})

			Convey("And it ends, it should be gone", func() {
				So(End(), ShouldBeNil)
				So(End(), ShouldBeNil)
				_, err := Current()
				So(err, ShouldEqual, ErrNoSession)
			})
		})

		Convey("When an expired session is stored", func() {
			s := NewSession("aryan", "u1", "", time.Hour)
			s.ExpiresAt = time.Now().Add(-time.Minute)
			data, _ := json.Marshal(s)
			So(keyring.Set(service, account, string(data)), ShouldBeNil)

			Convey("Reading it should tear it down", func() {
				_, err := Current()
				So(err, ShouldEqual, ErrSessionExpired)

				_, err = keyring.Get(service, account)
				So(err, ShouldEqual, keyring.ErrNotFound)
			})
		})

		Convey("An invalid session should not begin", func() {
			So(Begin(&Session{}), ShouldNotBeNil)
		})
	})

	Convey("Session validity", t, func() {
		So((*Session)(nil).Valid(), ShouldBeFalse)
		So(NewSession("a", "", "", 0).Valid(), ShouldBeTrue)
		So(NewSession("a", "", "", 0).ExpiresAt.IsZero(), ShouldBeTrue)
		So(NewSession(" ", "", "", time.Hour).Valid(), ShouldBeFalse)
		So(NewSession("a", "", "", 0).Authorization(), ShouldBeEmpty)
	})
}
