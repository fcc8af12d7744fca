package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCollectors(t *testing.T) {
	Convey("Counters should be observable", t, func() {
		before := testutil.ToFloat64(SessionsTotal.WithLabelValues("segmented"))
		SessionsTotal.WithLabelValues("segmented").Inc()
		So(testutil.ToFloat64(SessionsTotal.WithLabelValues("segmented")), ShouldEqual, before+1)

		before = testutil.ToFloat64(AutoplayBlockedTotal)
		AutoplayBlockedTotal.Inc()
		So(testutil.ToFloat64(AutoplayBlockedTotal), ShouldEqual, before+1)
	})

	Convey("The histogram should be collectable", t, func() {
		TimeToReady.Observe(0.3)
		So(testutil.CollectAndCount(TimeToReady), ShouldEqual, 1)
	})
}

func TestHandler(t *testing.T) {
	Convey("The handler should expose the registry", t, func() {
		ActiveEngines.Set(2)

		rec := httptest.NewRecorder()
		Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		So(rec.Code, ShouldEqual, http.StatusOK)
		body := rec.Body.String()
		So(strings.Contains(body, "arsu_engine_active 2"), ShouldBeTrue)
		So(strings.Contains(body, "go_goroutines"), ShouldBeTrue)
	})
}
