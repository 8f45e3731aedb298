package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/padflow/internal/app"
	"github.com/okian/padflow/internal/adapters/repository"
	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func request(pitches ...int) model.SolveRequest {
	events := make([]model.NoteEvent, len(pitches))
	for i, p := range pitches {
		events[i] = model.NoteEvent{Pitch: p, StartTime: float64(i) * 0.5}
	}
	return model.SolveRequest{
		Performance: model.Performance{Tempo: 120, Events: events},
		Sections: []model.SectionMap{{
			StartMeasure:     1,
			LengthInMeasures: 16,
			PitchMapping:     grid.NewPitchMapping(36),
		}},
	}
}

func waitForRevision(ctx context.Context, svc *service.Service, project string, rev int64) (model.SolveRecord, bool) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := svc.Latest(ctx, project)
		if err == nil && rec.Revision == rev {
			return rec, true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return model.SolveRecord{}, false
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service backed by SQLite", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "results.db"))
		So(err, ShouldBeNil)
		defer store.Close()

		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(32), service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a request is solved synchronously", func() {
			res, err := svc.Solve(ctx, request(36, 43, 46))

			Convey("Then every event is traced and played", func() {
				So(err, ShouldBeNil)
				So(len(res.DebugEvents), ShouldEqual, 3)
				So(res.UnplayableCount, ShouldEqual, 0)
				for _, ev := range res.DebugEvents {
					So(ev.Playable(), ShouldBeTrue)
				}
				So(res.Score, ShouldBeGreaterThan, 0.0)
			})
		})

		Convey("When a request has a malformed section", func() {
			req := request(36)
			req.Sections[0].LengthInMeasures = 0
			_, err := svc.Solve(ctx, req)

			Convey("Then the error is returned", func() {
				So(errors.Is(err, model.ErrInvalidSection), ShouldBeTrue)
			})
		})

		Convey("When a job is enqueued", func() {
			ok := svc.Enqueue(ctx, model.Job{ID: "job-1", ProjectID: "song", Revision: 1, Request: request(36, 37)})
			So(ok, ShouldBeTrue)

			Convey("Then its result is published", func() {
				rec, found := waitForRevision(ctx, svc, "song", 1)
				So(found, ShouldBeTrue)
				So(rec.JobID, ShouldEqual, "job-1")
				So(len(rec.Result.DebugEvents), ShouldEqual, 2)
				So(svc.GetStats()["projects"], ShouldEqual, 1)
			})
		})

		Convey("When revisions arrive out of order", func() {
			for _, rev := range []int64{3, 1, 2} {
				So(svc.Enqueue(ctx, model.Job{
					ID:        fmt.Sprintf("job-r%d", rev),
					ProjectID: "reordered",
					Revision:  rev,
					Request:   request(36),
				}), ShouldBeTrue)
			}
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the highest revision is kept", func() {
				rec, err := svc.Latest(ctx, "reordered")
				So(err, ShouldBeNil)
				So(rec.Revision, ShouldEqual, int64(3))
			})
		})

		Convey("When an unknown project is read", func() {
			_, err := svc.Latest(ctx, "missing")

			Convey("Then it is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
