package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInit(t *testing.T) {
	Convey("Given the default initialisation", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then a global logger is available", func() {
			So(Get(), ShouldNotBeNil)
			So(Named("solver"), ShouldNotBeNil)
		})
	})

	Convey("Given an unknown format or level", t, func() {
		So(InitWith(Options{Format: "xml"}), ShouldNotBeNil)
		So(InitWith(Options{Level: "loud"}), ShouldNotBeNil)
		So(Init(), ShouldBeNil)
	})
}

func TestJSONOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(Options{Level: "debug", Format: FormatJSON, Writer: &buf}), ShouldBeNil)
		defer func() { _ = Init() }()

		Convey("When logging with typed fields", func() {
			Named("solver").Debug(context.Background(), "solved",
				Int("events", 3),
				Float64("score", 100),
				Bool("overridden", false),
				Duration("took", 2*time.Millisecond),
				Error(errors.New("boom")),
			)

			Convey("Then each field becomes a JSON attribute", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "solved")
				So(rec["logger"], ShouldEqual, "solver")
				So(rec["events"], ShouldEqual, 3.0)
				So(rec["overridden"], ShouldEqual, false)
				So(rec["error"], ShouldEqual, "boom")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters a message", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestNop(t *testing.T) {
	Convey("A nop logger accepts calls silently", t, func() {
		l := Nop()
		So(func() { l.Named("x").Warn(context.Background(), "ignored", String("k", "v")) }, ShouldNotPanic)
	})
}
