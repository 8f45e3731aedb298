package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/padflow/internal/config"
	"github.com/okian/padflow/internal/domain/tuning"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.Store.Backend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the engine section round-trips the default tuning", func() {
			c, err := cfg.Engine.Constants()
			convey.So(err, convey.ShouldBeNil)
			convey.So(c, convey.ShouldResemble, tuning.Default())
		})
	})

	convey.Convey("Given an engine section with a short per-finger list", t, func() {
		cfg := config.New()
		cfg.Engine.MaxReach = []float64{4, 5}

		convey.Convey("Then it is rejected", func() {
			_, err := cfg.Engine.Constants()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "max_reach")
		})
	})

	convey.Convey("Given an engine section with descending thresholds", t, func() {
		cfg := config.New()
		cfg.Engine.EasyMax = 20

		convey.Convey("Then both config and tuning errors match", func() {
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, tuning.ErrInvalidConstants), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a sqlite store without a path", t, func() {
		cfg := config.New()
		cfg.Store.Backend = config.BackendSQLite

		convey.Convey("Then validation fails", func() {
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unknown store backend", t, func() {
		cfg := config.New()
		cfg.Store.Backend = "redis"

		convey.Convey("Then validation fails", func() {
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
