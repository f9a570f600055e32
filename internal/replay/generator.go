package replay

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/okian/proctor/internal/domain/model"
)

// scenario shapes one synthetic frame.
type scenario int

const (
	scenarioAttentive scenario = iota
	scenarioHeadTilt
	scenarioLookingDown
	scenarioHandsOut
	scenarioSecondPerson
	scenarioPhoneCheck
	scenarioCollusion
	scenarioAway
	scenarioCount
)

// jitter keeps landmarks clear of the scoring thresholds.
const jitter = 0.01

// Generate builds n frames captured at fps starting at start. The same seed
// always yields the same frames, ids included.
func Generate(n int, seed int64, fps float64, start time.Time) []*model.LandmarkFrame {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible test data
	step := time.Second
	if fps > 0 {
		step = time.Duration(float64(time.Second) / fps)
	}

	frames := make([]*model.LandmarkFrame, n)
	for i := range frames {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			id = uuid.New()
		}
		f := &model.LandmarkFrame{
			FrameID:    id.String(),
			CapturedAt: start.Add(time.Duration(i) * step).UTC(),
			Width:      640,
			Height:     480,
		}
		shape(f, scenario(rng.Intn(int(scenarioCount))), rng)
		frames[i] = f
	}
	return frames
}

func shape(f *model.LandmarkFrame, s scenario, rng *rand.Rand) {
	j := func() float64 { return (rng.Float64()*2 - 1) * jitter }

	eyeL, eyeR := 0.30+j(), 0.30+j()
	nose := 0.40 + j()
	shL, shR := 0.55+j(), 0.55+j()
	faces := 1
	var hands []model.HandLandmarks

	tilt := func() { eyeR = eyeL + 0.08 }
	down := func() { nose = 0.70 + j() }
	twoHands := func() {
		hands = []model.HandLandmarks{
			{Handedness: "Left", Points: []model.Landmark{{X: 0.3 + j(), Y: 0.8 + j()}}},
			{Handedness: "Right", Points: []model.Landmark{{X: 0.7 + j(), Y: 0.8 + j()}}},
		}
	}

	switch s {
	case scenarioAttentive:
	case scenarioHeadTilt:
		tilt()
	case scenarioLookingDown:
		down()
	case scenarioHandsOut:
		twoHands()
		shR = shL + 0.15
	case scenarioSecondPerson:
		faces = 2
	case scenarioPhoneCheck:
		tilt()
		down()
		twoHands()
	case scenarioCollusion:
		tilt()
		down()
		twoHands()
		faces = 2
	case scenarioAway:
		// Nobody in frame: no pose, no face.
		return
	}

	f.Pose = model.Some(model.Pose{
		model.LeftEye:       {X: 0.45, Y: eyeL, Visibility: 0.95},
		model.RightEye:      {X: 0.55, Y: eyeR, Visibility: 0.95},
		model.Nose:          {X: 0.50, Y: nose, Visibility: 0.95},
		model.LeftShoulder:  {X: 0.30, Y: shL, Visibility: 0.9},
		model.RightShoulder: {X: 0.70, Y: shR, Visibility: 0.9},
	})
	boxes := make([]model.FaceBox, faces)
	for i := range boxes {
		boxes[i] = model.FaceBox{XMin: 0.35 + 0.3*float64(i), YMin: 0.15, Width: 0.2, Height: 0.25, Score: 0.9}
	}
	f.Faces = model.Some(boxes)
	if hands != nil {
		f.Hands = model.Some(hands)
	}
}
