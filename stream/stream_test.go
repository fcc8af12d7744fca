package stream

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseQuality(t *testing.T) {
	Convey("ParseQuality", t, func() {
		Convey("Should accept every supported tier", func() {
			for _, q := range Qualities() {
				parsed, err := ParseQuality(string(q))
				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, q)
			}
		})

		Convey("Should normalize case and whitespace", func() {
			parsed, err := ParseQuality(" 1080P ")
			So(err, ShouldBeNil)
			So(parsed, ShouldEqual, Q1080p)
		})

		Convey("Should reject unknown tiers", func() {
			_, err := ParseQuality("4k")
			So(errors.Is(err, ErrUnknownQuality), ShouldBeTrue)
		})
	})

	Convey("Quality helpers", t, func() {
		So(Q480p.Height(), ShouldEqual, 480)
		So(Quality("nope").Height(), ShouldEqual, 0)
		So(Q240p.Next(), ShouldEqual, Q480p)
		So(Q1080p.Next(), ShouldEqual, Q240p)
	})
}

func TestResolve(t *testing.T) {
	Convey("Given an origin-relative resolver", t, func() {
		r := Resolver{}

		Convey("It builds the stream endpoint", func() {
			src, err := r.Resolve("abc123", Q480p)
			So(err, ShouldBeNil)
			So(src, ShouldEqual, "/api/videos/stream/abc123?quality=480p")
		})

		Convey("It embeds id and tier verbatim for every tier", func() {
			for _, id := range []string{"42", "65f1c0ffee", "abc123"} {
				for _, q := range Qualities() {
					src, err := r.Resolve(id, q)
					So(err, ShouldBeNil)
					So(strings.Contains(src, id), ShouldBeTrue)
					So(strings.Contains(src, string(q)), ShouldBeTrue)
				}
			}
		})

		Convey("It is pure", func() {
			a, _ := r.Resolve("abc123", Q720p)
			b, _ := r.Resolve("abc123", Q720p)
			So(a, ShouldEqual, b)
		})

		Convey("It fails fast on an empty resource", func() {
			_, err := r.Resolve("", Q720p)
			So(err, ShouldEqual, ErrInvalidResource)

			_, err = r.Resolve("   ", Q720p)
			So(err, ShouldEqual, ErrInvalidResource)
		})

		Convey("It rejects unknown tiers", func() {
			_, err := r.Resolve("abc123", Quality("2160p"))
			So(errors.Is(err, ErrUnknownQuality), ShouldBeTrue)
		})

		Convey("It escapes path separators in ids", func() {
			src, err := r.Resolve("a/b", Q240p)
			So(err, ShouldBeNil)
			So(src, ShouldEqual, "/api/videos/stream/a%2Fb?quality=240p")
		})
	})

	Convey("Given a resolver with origin and custom path", t, func() {
		r := Resolver{Origin: "http://media.local:8080/", BasePath: "stream/"}

		src, err := r.ResolveRequest(Request{ResourceID: "7", Quality: Q1080p})
		So(err, ShouldBeNil)
		So(src, ShouldEqual, "http://media.local:8080/stream/7?quality=1080p")
	})
}

func TestQualityOf(t *testing.T) {
	Convey("QualityOf", t, func() {
		So(QualityOf("/api/videos/stream/abc?quality=480p").MustGet(), ShouldEqual, Q480p)
		So(QualityOf("/api/videos/stream/abc").IsAbsent(), ShouldBeTrue)
		So(QualityOf("/api/videos/stream/abc?quality=8k").IsAbsent(), ShouldBeTrue)
	})
}
