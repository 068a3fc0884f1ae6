package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/waitcast/internal/adapters/report"
	"github.com/okian/waitcast/internal/synth"
	"github.com/smartystreets/goconvey/convey"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given the pipeline entry point", t, func() {
		dir := t.TempDir()
		ctx := context.Background()

		convey.Convey("When no data path is configured", func() {
			setEnv(t, map[string]string{"WAITCAST_DATA_PATH": ""})

			convey.Convey("Then it exits with the config code", func() {
				convey.So(run(ctx), convey.ShouldEqual, exitConfig)
			})
		})

		convey.Convey("When the data file is missing", func() {
			setEnv(t, map[string]string{
				"WAITCAST_DATA_PATH":   filepath.Join(dir, "missing.csv"),
				"WAITCAST_REPORT_PATH": filepath.Join(dir, "report.json"),
			})

			convey.Convey("Then it exits with the failure code", func() {
				convey.So(run(ctx), convey.ShouldEqual, exitFailed)
			})
		})

		convey.Convey("When a synthetic log is configured", func() {
			gen := synth.DefaultConfig()
			gen.Rows = 300
			data := filepath.Join(dir, "visits.csv")
			_, err := synth.WriteFile(data, gen)
			convey.So(err, convey.ShouldBeNil)

			out := filepath.Join(dir, "report.json")
			setEnv(t, map[string]string{
				"WAITCAST_DATA_PATH":              data,
				"WAITCAST_REPORT_PATH":            out,
				"WAITCAST_N_SPLITS":               "3",
				"WAITCAST_LOG_FORMAT":             "json",
				"WAITCAST_GRID__N_ESTIMATORS":     "10",
				"WAITCAST_GRID__LEARNING_RATE":    "0.1",
				"WAITCAST_GRID__MAX_DEPTH":        "2",
				"WAITCAST_GRID__MIN_SAMPLES_LEAF": "5",
			})

			convey.Convey("Then it succeeds and writes the report", func() {
				convey.So(run(ctx), convey.ShouldEqual, exitOK)
				_, statErr := os.Stat(out)
				convey.So(statErr, convey.ShouldBeNil)
				rep, err := report.ReadFile(out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(rep.BestParams.NEstimators, convey.ShouldEqual, 10)
				convey.So(rep.Rows.Raw, convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}
