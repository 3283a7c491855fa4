package replay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/rally/internal/domain/replay"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTrace(t *testing.T) {
	Convey("Given the replayed scenario", t, func() {
		engine, err := replay.Replay(context.Background(), scenario())
		So(err, ShouldBeNil)
		history := engine.History()

		Convey("When tracing a competitor who plays late", func() {
			trace := replay.Trace(history, "c")

			Convey("Then entries before the first match hold the not-played sentinel", func() {
				So(trace, ShouldHaveLength, 3)
				So(trace[0], ShouldEqual, replay.NotPlayed)
				So(trace[1], ShouldAlmostEqual, 1512.414300586377, 1e-6)
				So(trace[2], ShouldAlmostEqual, 1499.5724457193244, 1e-6)
			})
		})

		Convey("When tracing as points", func() {
			points := replay.Points(history, "c")

			Convey("Then each point carries the match and whether c played", func() {
				So(points, ShouldHaveLength, 3)
				So(points[0].MatchID, ShouldEqual, "m1")
				So(points[0].Played, ShouldBeFalse)
				So(points[1].Played, ShouldBeTrue)
				So(points[2].Index, ShouldEqual, 2)
				So(points[2].Date, ShouldEqual, day(3))
				So(points[2].Rating, ShouldAlmostEqual, 1499.5724457193244, 1e-6)
			})
		})

		Convey("When tracing a competitor who sits out the last match", func() {
			trace := replay.Trace(history, "a")

			Convey("Then the last rating is carried forward", func() {
				So(trace[0], ShouldAlmostEqual, 1512.0, tolerance)
				So(trace[2], ShouldEqual, trace[1])
			})
		})

		Convey("When tracing an unknown competitor", func() {
			trace := replay.Trace(history, "nobody")

			Convey("Then every entry is the sentinel", func() {
				So(trace, ShouldResemble, []float64{0, 0, 0})
			})
		})

		Convey("When tracing many competitors at once", func() {
			names := []string{"a", "b", "c", "nobody"}
			traces, err := replay.Traces(context.Background(), history, names)

			Convey("Then each matches the single-competitor reduction", func() {
				So(err, ShouldBeNil)
				So(traces, ShouldHaveLength, len(names))
				for _, name := range names {
					So(traces[name], ShouldResemble, replay.Trace(history, name))
				}
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := replay.Traces(ctx, history, []string{"a", "b"})

			Convey("Then the fan-out reports the cancellation", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty history", t, func() {
		Convey("Then the trace is empty", func() {
			So(replay.Trace(nil, "a"), ShouldBeEmpty)
		})
	})
}
