package report_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/waitcast/internal/adapters/report"
	"github.com/okian/waitcast/internal/domain/evaluation"
	"github.com/okian/waitcast/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() *types.Report {
	return &types.Report{
		RunID:         "run-1",
		ScoringMetric: "mae",
		Test:          evaluation.Metrics{N: 3, MAE: 1.5},
		Importance:    []types.Importance{{Rank: 1, Feature: "queue_length_numeric", Importance: 0.6}},
		Warnings:      []string{"model does not beat median baseline"},
	}
}

func TestWriteFile(t *testing.T) {
	Convey("Given a report", t, func() {
		rep := sample()

		Convey("When written to a file", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "report.json")
			So(report.WriteFile(path, rep), ShouldBeNil)

			Convey("Then it reads back and no temp file is left", func() {
				got, err := report.ReadFile(path)
				So(err, ShouldBeNil)
				So(got.RunID, ShouldEqual, "run-1")
				So(got.Test.MAE, ShouldEqual, 1.5)
				So(got.Importance[0].Feature, ShouldEqual, "queue_length_numeric")

				entries, _ := os.ReadDir(dir)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When the directory does not exist", func() {
			err := report.WriteFile(filepath.Join(t.TempDir(), "nope", "report.json"), rep)
			So(errors.Is(err, report.ErrWrite), ShouldBeTrue)
		})

		Convey("When encoded to a buffer", func() {
			var buf bytes.Buffer
			So(report.Encode(&buf, rep), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "\n  \"run_id\": \"run-1\"")
		})
	})
}
