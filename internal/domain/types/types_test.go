package types_test

import (
	"encoding/json"
	"testing"
	"time"

	types "github.com/okian/rally/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.Entry{Rank: 1, Competitor: "lin_dan", Rating: 1612.5, Momentum: -3.25, Matches: 40}

		Convey("When encoded as JSON", func() {
			data, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			Convey("Then it uses snake_case API field names", func() {
				var m map[string]any
				So(json.Unmarshal(data, &m), ShouldBeNil)
				So(m["competitor"], ShouldEqual, "lin_dan")
				So(m["rating"], ShouldEqual, 1612.5)
				So(m["momentum"], ShouldEqual, -3.25)
				So(m["matches"], ShouldEqual, float64(40))
				So(m["rank"], ShouldEqual, float64(1))
			})
		})
	})
}

func TestTracePoint(t *testing.T) {
	Convey("Given a trace point before a first match", t, func() {
		p := types.TracePoint{Index: 3, MatchID: "m4", Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)}

		Convey("When encoded as JSON", func() {
			data, err := json.Marshal(p)
			So(err, ShouldBeNil)

			Convey("Then the sentinel rating and played flag are explicit", func() {
				So(string(data), ShouldContainSubstring, `"rating":0`)
				So(string(data), ShouldContainSubstring, `"played":false`)
				So(string(data), ShouldContainSubstring, `"match_id":"m4"`)
			})
		})
	})
}
