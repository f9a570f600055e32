package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/proctor/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 1)
				convey.So(cfg.ResultsLogPath, convey.ShouldEqual, "results/results.jsonl")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PROCTOR_ADDR", ":8080")
			_ = os.Setenv("PROCTOR_QUEUE_SIZE", "128")
			_ = os.Setenv("PROCTOR_QUEUE_DROP_OLDEST", "false")
			_ = os.Setenv("PROCTOR_WORKER_COUNT", "2")
			_ = os.Setenv("PROCTOR_RESULTS_LOG_MAX_SIZE_MB", "5")
			_ = os.Setenv("PROCTOR_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 128)
				convey.So(cfg.QueueDropOldest, convey.ShouldBeFalse)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.ResultsLogMaxSizeMB, convey.ShouldEqual, 5)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 32
worker_count: 3
model_path: "/opt/models/cheating_model.pkl"
ws_interval_ms: 250
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PROCTOR_CONFIG", tmpFile)
			_ = os.Setenv("PROCTOR_WORKER_COUNT", "4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 32)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.ModelPath, convey.ShouldEqual, "/opt/models/cheating_model.pkl")
				convey.So(cfg.WSIntervalMS, convey.ShouldEqual, 250)
				convey.So(config.Path(), convey.ShouldEqual, tmpFile)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PROCTOR_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PROCTOR_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("PROCTOR_WORKER_COUNT", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an invalid config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a number cannot be parsed", func() {
			_ = os.Setenv("PROCTOR_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"PROCTOR_CONFIG",
		"PROCTOR_ADDR",
		"PROCTOR_QUEUE_SIZE",
		"PROCTOR_QUEUE_DROP_OLDEST",
		"PROCTOR_WORKER_COUNT",
		"PROCTOR_RESULTS_LOG_MAX_SIZE_MB",
		"PROCTOR_LOG_FORMAT",
		"PROCTOR_LOG_LEVEL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "proctor-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
