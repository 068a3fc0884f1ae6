package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/waitcast/internal/adapters/source"
	service "github.com/okian/waitcast/internal/app"
	"github.com/okian/waitcast/internal/config"
	"github.com/okian/waitcast/internal/domain/cleaning"
	"github.com/okian/waitcast/internal/synth"
	"github.com/okian/waitcast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// testConfig returns a small, fast configuration reading path.
func testConfig(dir, path string) *config.Config {
	cfg := config.New()
	cfg.DataPath = path
	cfg.NSplits = 3
	cfg.WorkerCount = 2
	cfg.ReportPath = filepath.Join(dir, "report.json")
	cfg.Grid = config.Grid{
		Models:         []string{"gbm", "ridge"},
		NEstimators:    []int{20},
		LearningRate:   []float64{0.1},
		MaxDepth:       []int{2},
		MinSamplesLeaf: []int{5},
		Alpha:          []float64{1.0},
	}
	return cfg
}

// writeLog generates a branch log of rows visits under dir.
func writeLog(dir string, rows int) (string, synth.Stats) {
	cfg := synth.DefaultConfig()
	cfg.Rows = rows
	path := filepath.Join(dir, "visits.csv")
	stats, err := synth.WriteFile(path, cfg)
	So(err, ShouldBeNil)
	return path, stats
}

func TestService_New(t *testing.T) {
	Convey("Given service construction", t, func() {
		Convey("When the config is nil", func() {
			_, err := service.New(nil)

			Convey("Then it is rejected as invalid", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the config has no data path", func() {
			_, err := service.New(config.New())

			Convey("Then validation fails", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the config is valid", func() {
			cfg := config.New()
			cfg.DataPath = "visits.csv"
			svc, err := service.New(cfg, service.WithLogger(logger.Get()))

			Convey("Then a service is built", func() {
				So(err, ShouldBeNil)
				So(svc, ShouldNotBeNil)
			})
		})
	})
}

func TestService_RunFailures(t *testing.T) {
	Convey("Given a service over a bad input", t, func() {
		dir := t.TempDir()
		ctx := context.Background()

		Convey("When the data file does not exist", func() {
			cfg := testConfig(dir, filepath.Join(dir, "missing.csv"))
			svc, err := service.New(cfg)
			So(err, ShouldBeNil)
			_, err = svc.Run(ctx)

			Convey("Then the ingest stage fails with input not found", func() {
				So(errors.Is(err, service.ErrPipeline), ShouldBeTrue)
				So(errors.Is(err, source.ErrInputNotFound), ShouldBeTrue)
				var se *service.StageError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Stage, ShouldEqual, service.StageIngest)
			})

			Convey("Then no report is written", func() {
				_, statErr := os.Stat(cfg.ReportPath)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When a required column is missing", func() {
			path := filepath.Join(dir, "bad.csv")
			So(os.WriteFile(path, []byte("arrival_time,start_time,wait_time\n2024-01-08 09:00:00,2024-01-08 09:01:00,1\n"), 0o600), ShouldBeNil)
			svc, err := service.New(testConfig(dir, path))
			So(err, ShouldBeNil)
			_, err = svc.Run(ctx)

			Convey("Then the error names the missing columns", func() {
				So(errors.Is(err, source.ErrMissingColumn), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "finish_time")
				So(err.Error(), ShouldContainSubstring, "queue_length")
			})
		})

		Convey("When too few rows survive cleaning", func() {
			path := filepath.Join(dir, "tiny.csv")
			body := strings.Join([]string{
				"arrival_time,start_time,finish_time,wait_time,queue_length",
				"2024-01-08 09:00:00,2024-01-08 09:02:00,2024-01-08 09:08:00,2,1",
				"garbage,2024-01-08 09:05:00,2024-01-08 09:09:00,1,0",
			}, "\n")
			So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
			svc, err := service.New(testConfig(dir, path))
			So(err, ShouldBeNil)
			_, err = svc.Run(ctx)

			Convey("Then the clean stage reports insufficient data", func() {
				So(errors.Is(err, cleaning.ErrInsufficientData), ShouldBeTrue)
				var se *service.StageError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Stage, ShouldEqual, service.StageClean)
			})
		})

		Convey("When the context is cancelled before tuning", func() {
			path, _ := writeLog(dir, 200)
			svc, err := service.New(testConfig(dir, path))
			So(err, ShouldBeNil)
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err = svc.Run(cctx)

			Convey("Then the run fails in the tune stage", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				var se *service.StageError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Stage, ShouldEqual, service.StageTune)
			})
		})
	})
}
