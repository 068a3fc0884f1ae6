package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/waitcast/internal/adapters/ledger"
	"github.com/okian/waitcast/internal/domain/evaluation"
	"github.com/okian/waitcast/internal/domain/regressor"
	"github.com/okian/waitcast/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	convey.Convey("Given a ledger in a temp directory", t, func() {
		ctx := context.Background()
		l, err := ledger.Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = l.Close() }()

		convey.Convey("When a run starts without an id", func() {
			id, err := l.Start(ctx, "", "/data/visits.csv")

			convey.Convey("Then a UUID is assigned and the run is running", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(id), convey.ShouldEqual, 36)
				runs, err := l.Runs(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(runs), convey.ShouldEqual, 1)
				convey.So(runs[0].Status, convey.ShouldEqual, ledger.StatusRunning)
				convey.So(runs[0].FinishedAt, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a run finishes", func() {
			id, err := l.Start(ctx, "run-1", "/data/visits.csv")
			convey.So(err, convey.ShouldBeNil)

			rep := &types.Report{
				RunID:         id,
				ScoringMetric: "mae",
				BestParams:    regressor.Params{Model: regressor.ModelGBM, NEstimators: 50, LearningRate: 0.1, MaxDepth: 2, MinSamplesLeaf: 1},
				CVScore:       2.5,
				Test:          evaluation.Metrics{N: 10, MAE: 2.1, RMSE: 3, MAPE: 20, R2: 0.4},
				Candidates: []types.CandidateRow{
					{Params: regressor.Params{Model: regressor.ModelGBM, MaxDepth: 0}, Error: "invalid"},
					{Params: regressor.Params{Model: regressor.ModelGBM, MaxDepth: 2}, Score: types.FiniteOrNil(2.5)},
				},
			}
			convey.So(l.Finish(ctx, rep), convey.ShouldBeNil)

			convey.Convey("Then its metrics and candidates are stored", func() {
				runs, err := l.Runs(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(runs[0].Status, convey.ShouldEqual, ledger.StatusSucceeded)
				convey.So(*runs[0].CVScore, convey.ShouldEqual, 2.5)
				convey.So(*runs[0].TestMAE, convey.ShouldEqual, 2.1)
				convey.So(runs[0].BestParams, convey.ShouldContainSubstring, `"model":"gbm"`)
				convey.So(runs[0].FinishedAt, convey.ShouldNotBeNil)

				n, err := l.CandidateCount(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a run fails", func() {
			id, _ := l.Start(ctx, "run-2", "/data/visits.csv")
			convey.So(l.Fail(ctx, id, errors.New("too few rows")), convey.ShouldBeNil)

			convey.Convey("Then the cause is recorded", func() {
				runs, _ := l.Runs(ctx)
				convey.So(runs[0].Status, convey.ShouldEqual, ledger.StatusFailed)
				convey.So(runs[0].Error, convey.ShouldEqual, "too few rows")
			})
		})

		convey.Convey("When the same id starts twice", func() {
			_, err := l.Start(ctx, "dup", "a.csv")
			convey.So(err, convey.ShouldBeNil)
			_, err = l.Start(ctx, "dup", "a.csv")
			convey.So(errors.Is(err, ledger.ErrWrite), convey.ShouldBeTrue)
		})

		convey.Convey("When used after closing", func() {
			convey.So(l.Close(), convey.ShouldBeNil)
			_, err := l.Start(ctx, "", "a.csv")
			convey.So(errors.Is(err, ledger.ErrClosed), convey.ShouldBeTrue)
			convey.So(l.Close(), convey.ShouldBeNil)
		})
	})
}
