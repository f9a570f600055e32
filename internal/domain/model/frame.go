// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// BodyPart names a pose landmark. Values follow the MediaPipe pose names.
type BodyPart string

// Pose landmarks read by the scorer. Other parts are carried but ignored.
const (
	Nose          BodyPart = "nose"
	LeftEye       BodyPart = "left_eye"
	RightEye      BodyPart = "right_eye"
	LeftShoulder  BodyPart = "left_shoulder"
	RightShoulder BodyPart = "right_shoulder"
)

// Landmark is a normalized 2D point within the frame.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Pose maps body parts to landmarks for one detected person.
type Pose map[BodyPart]Landmark

// Landmark returns the landmark for part, if the detector supplied it.
func (p Pose) Landmark(part BodyPart) (Landmark, bool) {
	lm, ok := p[part]
	return lm, ok
}

// FaceBox is a face detection as a relative bounding box.
type FaceBox struct {
	XMin   float64 `json:"xmin"`
	YMin   float64 `json:"ymin"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Score  float64 `json:"score"`
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Handedness string     `json:"handedness,omitempty"`
	Points     []Landmark `json:"points"`
}

// LandmarkFrame is the detector output for a single video frame.
// It is produced once per frame, scored once, and not retained.
type LandmarkFrame struct {
	FrameID    string    `json:"frame_id"`
	CapturedAt time.Time `json:"captured_at"`
	// Width and Height are only used for overlays.
	Width  int `json:"width"`
	Height int `json:"height"`

	Pose  Optional[Pose]            `json:"pose"`
	Faces Optional[[]FaceBox]       `json:"faces"`
	Hands Optional[[]HandLandmarks] `json:"hands"`

	// Seq is the ingest order assigned by the service. It is never read
	// from or written to the wire.
	Seq uint64 `json:"-"`
}

// FaceCount returns the number of detected faces, zero when absent.
func (f *LandmarkFrame) FaceCount() int {
	faces, _ := f.Faces.Get()
	return len(faces)
}

// HandCount returns the number of detected hands, zero when absent.
func (f *LandmarkFrame) HandCount() int {
	hands, _ := f.Hands.Get()
	return len(hands)
}

// Validate rejects frames with negative dimensions or face boxes.
func (f *LandmarkFrame) Validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("%w: negative frame size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	faces, _ := f.Faces.Get()
	for i, b := range faces {
		if b.Width < 0 || b.Height < 0 {
			return fmt.Errorf("%w: face %d has negative size", ErrInvalidFrame, i)
		}
	}
	return nil
}
