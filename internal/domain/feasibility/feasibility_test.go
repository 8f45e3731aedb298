package feasibility_test

import (
	"testing"

	"github.com/okian/padflow/internal/domain/feasibility"
	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/hand"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOrigin(t *testing.T) {
	Convey("Given hands in different postures", t, func() {
		c := tuning.Default()
		home := grid.GridPos{Row: 3, Col: 3}

		Convey("A placed finger travels from its own pad", func() {
			s := hand.New(model.Right, c.RightHome, c)
			So(feasibility.Origin(s, model.Index, home), ShouldResemble, grid.Point{Row: 1, Col: 5})
		})

		Convey("An unplaced finger travels from the centre of gravity", func() {
			c.RestingOffsets = nil
			s := hand.New(model.Right, c.RightHome, c).With(model.Thumb, grid.GridPos{Row: 2, Col: 2})
			So(feasibility.Origin(s, model.Pinky, home), ShouldResemble, grid.Point{Row: 2, Col: 2})
		})

		Convey("An empty hand falls back to home", func() {
			c.RestingOffsets = nil
			s := hand.New(model.Left, c.LeftHome, c)
			So(feasibility.Origin(s, model.Ring, home), ShouldResemble, home.Point())
		})
	})
}

func TestIsReachable(t *testing.T) {
	Convey("Given the default reach limits", t, func() {
		c := tuning.Default()
		from := grid.GridPos{Row: 0, Col: 0}.Point()

		Convey("Targets within reach are reachable", func() {
			So(feasibility.IsReachable(from, grid.GridPos{Row: 0, Col: 4}, model.Thumb, c), ShouldBeTrue)
			So(feasibility.IsReachable(from, grid.GridPos{Row: 3, Col: 4}, model.Index, c), ShouldBeTrue)
		})

		Convey("Targets beyond reach are not", func() {
			So(feasibility.IsReachable(from, grid.GridPos{Row: 0, Col: 5}, model.Thumb, c), ShouldBeFalse)
			So(feasibility.IsReachable(from, grid.GridPos{Row: 7, Col: 7}, model.Middle, c), ShouldBeFalse)
		})
	})
}

func TestIsValidFingerOrder(t *testing.T) {
	Convey("Given the right hand at rest", t, func() {
		c := tuning.Default()
		s := hand.New(model.Right, c.RightHome, c)

		Convey("The resting posture is valid for every finger", func() {
			for _, f := range model.Fingers {
				So(feasibility.IsValidFingerOrder(s, f, c), ShouldBeTrue)
			}
		})

		Convey("A thumb right of the index crosses", func() {
			So(feasibility.IsValidFingerOrder(s.With(model.Thumb, grid.GridPos{Row: 0, Col: 6}), model.Thumb, c), ShouldBeFalse)
		})

		Convey("Sharing a column is allowed", func() {
			So(feasibility.IsValidFingerOrder(s.With(model.Index, grid.GridPos{Row: 1, Col: 4}), model.Index, c), ShouldBeTrue)
		})

		Convey("A tolerance admits a small crossing", func() {
			c.FingerOrderTolerance = 1
			So(feasibility.IsValidFingerOrder(s.With(model.Thumb, grid.GridPos{Row: 0, Col: 6}), model.Thumb, c), ShouldBeTrue)
		})
	})

	Convey("Given the left hand at rest", t, func() {
		c := tuning.Default()
		s := hand.New(model.Left, c.LeftHome, c)

		Convey("A thumb left of the index crosses", func() {
			So(feasibility.IsValidFingerOrder(s.With(model.Thumb, grid.GridPos{Row: 0, Col: 1}), model.Thumb, c), ShouldBeFalse)
		})

		Convey("A pinky right of the ring crosses", func() {
			So(feasibility.IsValidFingerOrder(s.With(model.Pinky, grid.GridPos{Row: 1, Col: 1}), model.Pinky, c), ShouldBeFalse)
		})

		Convey("Reaching outward with the pinky is fine", func() {
			So(feasibility.CanPlace(s, model.Pinky, grid.GridPos{Row: 0, Col: 0}, c.LeftHome, c), ShouldBeTrue)
		})
	})
}

func TestFeasibleFingers(t *testing.T) {
	Convey("Given the left hand at rest and the bottom-left pad", t, func() {
		c := tuning.Default()
		s := hand.New(model.Left, c.LeftHome, c)

		Convey("Only the outer fingers can take it without crossing", func() {
			fingers := feasibility.FeasibleFingers(s, grid.GridPos{Row: 0, Col: 0}, c.LeftHome, c)
			So(fingers, ShouldResemble, []model.Finger{model.Middle, model.Ring, model.Pinky})
		})
	})
}

func TestChordFeasibility(t *testing.T) {
	Convey("Given the left hand at rest", t, func() {
		c := tuning.Default()
		s := hand.New(model.Left, c.LeftHome, c)

		Convey("An empty chord is trivially feasible", func() {
			So(feasibility.CheckChordFeasibility(nil, s, c.LeftHome, c), ShouldBeTrue)
		})

		Convey("More notes than fingers is infeasible", func() {
			notes := make([]grid.GridPos, 6)
			for i := range notes {
				notes[i] = grid.GridPos{Row: 1, Col: i}
			}
			So(feasibility.CheckChordFeasibility(notes, s, c.LeftHome, c), ShouldBeFalse)
		})

		Convey("A three-note row is covered in anatomical order", func() {
			notes := []grid.GridPos{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}}
			fingers, ok := feasibility.AssignChord(notes, s, c.LeftHome, c)
			So(ok, ShouldBeTrue)
			So(fingers, ShouldHaveLength, 3)
			So(fingers[0], ShouldBeGreaterThan, fingers[1])
			So(fingers[1], ShouldBeGreaterThan, fingers[2])
		})

		Convey("A chord far outside the hand is infeasible", func() {
			notes := []grid.GridPos{{Row: 7, Col: 7}}
			So(feasibility.CheckChordFeasibility(notes, s, c.LeftHome, c), ShouldBeFalse)
		})
	})
}
