package hand_test

import (
	"math"
	"testing"

	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/hand"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given the default tuning", t, func() {
		c := tuning.Default()

		Convey("When building the left hand at its home", func() {
			s := hand.New(model.Left, c.LeftHome, c)

			Convey("Then every finger rests on its pad", func() {
				So(s.Placed(), ShouldHaveLength, model.FingerCount)
				pos, ok := s.Position(model.Index)
				So(ok, ShouldBeTrue)
				So(pos, ShouldResemble, grid.GridPos{Row: 1, Col: 2})
				pos, _ = s.Position(model.Pinky)
				So(pos, ShouldResemble, grid.GridPos{Row: 1, Col: 0})
			})

			Convey("Then the derived fields describe the posture", func() {
				So(s.HasCenter, ShouldBeTrue)
				So(s.Center.Row, ShouldAlmostEqual, 1.2, 1e-9)
				So(s.Center.Col, ShouldAlmostEqual, 1.2, 1e-9)
				So(s.Span, ShouldAlmostEqual, math.Sqrt(13), 1e-9)
			})
		})

		Convey("When no resting layout is configured", func() {
			c.RestingOffsets = nil
			s := hand.New(model.Right, c.RightHome, c)

			Convey("Then the hand starts empty", func() {
				So(s.Placed(), ShouldBeEmpty)
				So(s.HasCenter, ShouldBeFalse)
				So(s.Span, ShouldEqual, 0)
			})
		})
	})
}

func TestWithIsASnapshot(t *testing.T) {
	Convey("Given a hand", t, func() {
		c := tuning.Default()
		s := hand.New(model.Right, c.RightHome, c)
		before := s

		Convey("When a hypothetical move is applied", func() {
			next := s.With(model.Thumb, grid.GridPos{Row: 0, Col: 0})

			Convey("Then the original is unchanged", func() {
				So(s, ShouldResemble, before)
				pos, _ := next.Position(model.Thumb)
				So(pos, ShouldResemble, grid.GridPos{Row: 0, Col: 0})
				So(next.Span, ShouldBeGreaterThan, s.Span)
				So(s.SpanWith(model.Thumb, grid.GridPos{Row: 0, Col: 0}), ShouldEqual, next.Span)
			})
		})
	})
}

func TestCommit(t *testing.T) {
	Convey("Given a rested hand", t, func() {
		c := tuning.Default()
		s := hand.New(model.Left, c.LeftHome, c)

		Convey("When a finger strikes", func() {
			s.Commit(model.Index, grid.GridPos{Row: 0, Col: 2}, 0, c)

			Convey("Then it gains one increment of fatigue and moves", func() {
				So(s.Finger(model.Index).Fatigue, ShouldEqual, c.FatigueIncrement)
				So(s.Finger(model.Index).Pos, ShouldResemble, grid.GridPos{Row: 0, Col: 2})
				So(s.Finger(model.Thumb).Fatigue, ShouldEqual, 0)
			})

			Convey("And time passes before the next strike", func() {
				s.Commit(model.Middle, grid.GridPos{Row: 1, Col: 1}, 1.0, c)

				Convey("Then every finger recovers, floored at zero", func() {
					So(s.Finger(model.Index).Fatigue, ShouldAlmostEqual, 0.5, 1e-9)
					So(s.Finger(model.Middle).Fatigue, ShouldAlmostEqual, 0.5, 1e-9)
					So(s.Finger(model.Pinky).Fatigue, ShouldEqual, 0)
				})
			})
		})

		Convey("When decaying with a non-positive interval", func() {
			s.Commit(model.Ring, grid.GridPos{Row: 2, Col: 0}, 0, c)
			s.Decay(-1, c.FatigueDecayRate)

			Convey("Then nothing changes", func() {
				So(s.Finger(model.Ring).Fatigue, ShouldEqual, c.FatigueIncrement)
			})
		})
	})
}
