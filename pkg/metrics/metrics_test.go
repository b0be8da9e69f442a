package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with namespace and subsystem", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording balancing metrics", func() {
			So(func() {
				RecordTeamsFormed(1024, 2.5, 0.0)
				RecordTeamsFormed(16, 0.1, 3.0)
				RecordBalanceError()
			}, ShouldNotPanic)
		})

		Convey("When recording rating metrics", func() {
			So(func() {
				RecordMatchApplied()
				RecordMatchError()
				RecordReplay(12.0)
			}, ShouldNotPanic)
		})

		Convey("When updating registry gauges", func() {
			So(func() {
				UpdateRegisteredUsers(0)
				UpdateRegisteredUsers(42)
				UpdateStoredMatches(7)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequest("teams_form", "POST", "422")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 5.0)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent metric recording", t, func() {
		done := make(chan bool, 8)
		for i := 0; i < 8; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordTeamsFormed(int64(j), float64(j), 1.0)
					RecordMatchApplied()
					UpdateRegisteredUsers(j)
					RecordHTTPRequest("users", "GET", "200")
				}
				done <- true
			}()
		}
		for i := 0; i < 8; i++ {
			<-done
		}

		Convey("Then it should handle concurrent access without panics", func() {
			So(true, ShouldBeTrue)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("When fetching it for the metrics handler", func() {
			registry := GetRegistry()

			Convey("Then gathering succeeds", func() {
				So(registry, ShouldNotBeNil)
				_, err := registry.Gather()
				So(err, ShouldBeNil)
			})
		})
	})
}
