package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/replay"
	. "github.com/smartystreets/goconvey/convey"
)

func standings() []replay.Standing {
	return []replay.Standing{
		{Competitor: "cat", Rating: 1488, LastDelta: -12, Matches: 1},
		{Competitor: "bob", Rating: 1512, LastDelta: 12, Matches: 1},
		{Competitor: "amy", Rating: 1512, LastDelta: 12, Matches: 1},
		{Competitor: "dan", Rating: 1500, Matches: 0},
	}
}

func TestLeaderboard(t *testing.T) {
	Convey("Given an empty leaderboard", t, func() {
		ctx := context.Background()
		lb := repository.NewLeaderboard()

		Convey("Then reads are empty", func() {
			So(lb.Count(ctx), ShouldEqual, 0)
			top, err := lb.TopN(ctx, 5)
			So(err, ShouldBeNil)
			So(top, ShouldBeEmpty)
			_, err = lb.Rank(ctx, "amy")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When standings are published", func() {
			lb.Publish(ctx, standings())

			Convey("Then TopN orders by rating then name with tied ranks", func() {
				top, err := lb.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 4)
				So(top[0].Competitor, ShouldEqual, "amy")
				So(top[1].Competitor, ShouldEqual, "bob")
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].Rank, ShouldEqual, 1)
				So(top[2].Competitor, ShouldEqual, "dan")
				So(top[2].Rank, ShouldEqual, 2)
				So(top[3].Rank, ShouldEqual, 3)
			})

			Convey("Then Rank returns the competitor's entry", func() {
				e, err := lb.Rank(ctx, "cat")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 3)
				So(e.Momentum, ShouldEqual, -12.0)
				So(e.Matches, ShouldEqual, 1)
			})

			Convey("Then a non-positive limit is rejected", func() {
				_, err := lb.TopN(ctx, 0)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("Then a returned slice does not alias the snapshot", func() {
				top, _ := lb.TopN(ctx, 1)
				top[0].Competitor = "mallory"
				again, _ := lb.TopN(ctx, 1)
				So(again[0].Competitor, ShouldEqual, "amy")
			})
		})

		Convey("When the top cache is smaller than the limit", func() {
			small := repository.NewLeaderboard(repository.WithTopCacheSize(2))
			small.Publish(ctx, standings())

			Convey("Then TopN is capped", func() {
				top, err := small.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
				So(small.Count(ctx), ShouldEqual, 4)
			})
		})
	})
}

func TestLeaderboardConcurrentReads(t *testing.T) {
	Convey("Given readers racing a publisher", t, func() {
		ctx := context.Background()
		lb := repository.NewLeaderboard()
		lb.Publish(ctx, standings())

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 200; j++ {
					_, _ = lb.TopN(ctx, 3)
					_, _ = lb.Rank(ctx, "amy")
				}
			}()
		}
		for j := 0; j < 50; j++ {
			lb.Publish(ctx, standings())
		}
		wg.Wait()

		Convey("Then the final snapshot is complete", func() {
			So(lb.Count(ctx), ShouldEqual, 4)
		})
	})
}
