package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/proctor/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOptional(t *testing.T) {
	Convey("Given optional signals", t, func() {
		Convey("When constructed with Some", func() {
			o := model.Some(3)
			v, ok := o.Get()

			Convey("Then the value should be present", func() {
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 3)
				So(o.Present(), ShouldBeTrue)
			})
		})

		Convey("When constructed with None or left zero", func() {
			var zero model.Optional[int]

			Convey("Then the value should be absent", func() {
				So(model.None[int]().Present(), ShouldBeFalse)
				So(zero.Present(), ShouldBeFalse)
			})
		})

		Convey("When an absent value is marshaled", func() {
			data, err := json.Marshal(model.None[[]model.FaceBox]())

			Convey("Then it should encode as null", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "null")
			})
		})
	})
}

func TestLandmarkFrameDecoding(t *testing.T) {
	Convey("Given detector JSON", t, func() {
		Convey("When every signal is present", func() {
			raw := `{
				"frame_id": "f-1",
				"captured_at": "2026-10-16T09:30:00Z",
				"width": 640, "height": 480,
				"pose": {"nose": {"x": 0.5, "y": 0.65, "visibility": 0.99}},
				"faces": [{"xmin": 0.1, "ymin": 0.2, "width": 0.3, "height": 0.4, "score": 0.9}],
				"hands": [{"handedness": "Left", "points": [{"x": 0.2, "y": 0.8}]}]
			}`
			var f model.LandmarkFrame
			err := json.Unmarshal([]byte(raw), &f)

			Convey("Then all signals should decode as present", func() {
				So(err, ShouldBeNil)
				So(f.FrameID, ShouldEqual, "f-1")
				So(f.Width, ShouldEqual, 640)
				pose, ok := f.Pose.Get()
				So(ok, ShouldBeTrue)
				nose, ok := pose.Landmark(model.Nose)
				So(ok, ShouldBeTrue)
				So(nose.Y, ShouldEqual, 0.65)
				So(f.FaceCount(), ShouldEqual, 1)
				So(f.HandCount(), ShouldEqual, 1)
			})
		})

		Convey("When signals are null or missing", func() {
			var f model.LandmarkFrame
			err := json.Unmarshal([]byte(`{"frame_id": "f-2", "pose": null}`), &f)

			Convey("Then they should decode as absent", func() {
				So(err, ShouldBeNil)
				So(f.Pose.Present(), ShouldBeFalse)
				So(f.Faces.Present(), ShouldBeFalse)
				So(f.Hands.Present(), ShouldBeFalse)
				So(f.FaceCount(), ShouldEqual, 0)
				So(f.HandCount(), ShouldEqual, 0)
			})
		})

		Convey("When a signal has the wrong shape", func() {
			var f model.LandmarkFrame
			err := json.Unmarshal([]byte(`{"faces": {"xmin": 1}}`), &f)

			Convey("Then decoding should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLandmarkFrameValidate(t *testing.T) {
	Convey("Given frames to validate", t, func() {
		Convey("When sizes are sane", func() {
			f := &model.LandmarkFrame{Width: 640, Height: 480, Faces: model.Some([]model.FaceBox{{Width: 0.2, Height: 0.3}})}
			So(f.Validate(), ShouldBeNil)
		})

		Convey("When the frame size is negative", func() {
			f := &model.LandmarkFrame{Width: -1}
			So(errors.Is(f.Validate(), model.ErrInvalidFrame), ShouldBeTrue)
		})

		Convey("When a face box is negative", func() {
			f := &model.LandmarkFrame{Faces: model.Some([]model.FaceBox{{Width: -0.2}})}
			So(errors.Is(f.Validate(), model.ErrInvalidFrame), ShouldBeTrue)
		})
	})
}
