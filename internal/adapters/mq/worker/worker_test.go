package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/rally/internal/adapters/mq/queue"
	worker "github.com/okian/rally/internal/adapters/mq/worker"
	model "github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/replay"
	logging "github.com/okian/rally/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockApplier struct {
	mu      sync.Mutex
	applied []string
	errors  map[string]error
}

func newMockApplier() *mockApplier {
	return &mockApplier{errors: make(map[string]error)}
}

func (a *mockApplier) Apply(_ context.Context, m model.Match) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.errors[m.ID]; ok {
		return err
	}
	a.applied = append(a.applied, m.ID)
	return nil
}

func (a *mockApplier) ids() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.applied...)
}

func match(id string) model.Match {
	return model.Match{ID: id, Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), PlayerA: "a", PlayerB: "b", ScoreA: 2, ScoreB: 1}
}

func TestIngestWorker(t *testing.T) {
	convey.Convey("Given an ingest worker over a queue", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		applier := newMockApplier()
		w := worker.NewIngestWorker(q, applier, worker.WithName("test"))
		convey.So(w, convey.ShouldNotBeNil)

		convey.Convey("When matches are queued and the queue is closed", func() {
			for i := 0; i < 20; i++ {
				convey.So(q.Enqueue(ctx, match(fmt.Sprintf("m%02d", i))), convey.ShouldBeNil)
			}
			convey.So(q.Close(), convey.ShouldBeNil)

			go w.Run(ctx)
			shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then every match is applied in queue order", func() {
				convey.So(err, convey.ShouldBeNil)
				ids := applier.ids()
				convey.So(ids, convey.ShouldHaveLength, 20)
				convey.So(ids[0], convey.ShouldEqual, "m00")
				convey.So(ids[19], convey.ShouldEqual, "m19")
			})
		})

		convey.Convey("When applying a match fails", func() {
			applier.errors["bad"] = fmt.Errorf("wrapped: %w", replay.ErrOutOfOrder)
			convey.So(q.Enqueue(ctx, match("bad")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, match("good")), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			go w.Run(ctx)
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(applier.ids(), convey.ShouldResemble, []string{"good"})
			})
		})

		convey.Convey("When the context is cancelled", func() {
			runCtx, cancel := context.WithCancel(ctx)
			finished := make(chan struct{})
			go func() {
				w.Run(runCtx)
				close(finished)
			}()
			cancel()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-finished:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})

		convey.Convey("When shutdown times out on an open queue", func() {
			go w.Run(ctx)
			shutdownCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then the worker is stopped and the timeout reported", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}

func TestReason(t *testing.T) {
	convey.Convey("Given apply errors", t, func() {
		convey.Convey("Then each maps to a metric reason", func() {
			convey.So(worker.Reason(replay.ErrOutOfOrder), convey.ShouldEqual, "out_of_order")
			convey.So(worker.Reason(&model.IntegrityError{Reason: "x"}), convey.ShouldEqual, "integrity")
			convey.So(worker.Reason(replay.ErrReplayDone), convey.ShouldEqual, "replay_done")
			convey.So(worker.Reason(context.Canceled), convey.ShouldEqual, "cancelled")
			convey.So(worker.Reason(errors.New("disk full")), convey.ShouldEqual, "apply_error")
		})
	})
}
