package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/waitcast/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail because data_path is required", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "data_path")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WAITCAST_DATA_PATH", "/data/visits.csv")
			_ = os.Setenv("WAITCAST_TRAIN_FRACTION", "0.8")
			_ = os.Setenv("WAITCAST_N_SPLITS", "3")
			_ = os.Setenv("WAITCAST_ORDER_POLICY", "drop")
			_ = os.Setenv("WAITCAST_GRID__MAX_DEPTH", "4")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataPath, convey.ShouldEqual, "/data/visits.csv")
				convey.So(cfg.TrainFraction, convey.ShouldEqual, 0.8)
				convey.So(cfg.NSplits, convey.ShouldEqual, 3)
				convey.So(cfg.OrderPolicy, convey.ShouldEqual, "drop")
				convey.So(cfg.Grid.MaxDepth, convey.ShouldResemble, []int{4})
				convey.So(cfg.Grid.NEstimators, convey.ShouldResemble, []int{50, 100})
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
data_path: "/data/visits.csv"
rolling_window: 7
branch_open: "08:30"
grid:
  models: [gbm, ridge]
  n_estimators: [25]
  alpha: [0.1, 10]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("WAITCAST_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.RollingWindow, convey.ShouldEqual, 7)
				convey.So(cfg.BranchOpen, convey.ShouldEqual, "08:30")
				convey.So(cfg.Grid.Models, convey.ShouldResemble, []string{"gbm", "ridge"})
				convey.So(cfg.Grid.NEstimators, convey.ShouldResemble, []int{25})
				convey.So(cfg.Grid.Alpha, convey.ShouldResemble, []float64{0.1, 10})
				convey.So(cfg.Grid.MaxDepth, convey.ShouldResemble, []int{2, 3})
				convey.So(cfg.TrainFraction, convey.ShouldEqual, 0.75)
			})

			convey.Convey("And env vars take precedence over the file", func() {
				_ = os.Setenv("WAITCAST_ROLLING_WINDOW", "3")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.RollingWindow, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("WAITCAST_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("WAITCAST_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("WAITCAST_DATA_PATH", "/data/visits.csv")
			_ = os.Setenv("WAITCAST_N_SPLITS", "many")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an out of range fraction", func() {
			_ = os.Setenv("WAITCAST_DATA_PATH", "/data/visits.csv")
			_ = os.Setenv("WAITCAST_TRAIN_FRACTION", "1.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.
func clearConfigEnvVars() {
	for _, name := range []string{
		"WAITCAST_CONFIG",
		"WAITCAST_DATA_PATH",
		"WAITCAST_TRAIN_FRACTION",
		"WAITCAST_N_SPLITS",
		"WAITCAST_ORDER_POLICY",
		"WAITCAST_ROLLING_WINDOW",
		"WAITCAST_GRID__MAX_DEPTH",
	} {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "waitcast_config_*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
