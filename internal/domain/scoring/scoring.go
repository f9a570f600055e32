// Package scoring turns a frame's landmarks into a cheating score.
//
// Every frame is scored on its own. There is no smoothing or hysteresis, so
// the warning level can change between consecutive frames.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/proctor/internal/domain/model"
)

// Thresholds on normalized landmark coordinates.
const (
	eyeTiltThreshold      = 0.05
	lookingDownThreshold  = 0.6
	shoulderDiffThreshold = 0.1
)

// Indicator weights. The sum is clamped to maxScore once, after all checks.
const (
	headTiltWeight       = 0.15
	lookingDownWeight    = 0.20
	postureWeight        = 0.15
	perHandWeight        = 0.10
	multiplePeopleWeight = 0.25
	maxScore             = 1.0
)

// Kind identifies which check produced an indicator.
type Kind string

// Indicator kinds, in evaluation order.
const (
	KindHeadTilt       Kind = "head_tilt"
	KindLookingDown    Kind = "looking_down"
	KindPosture        Kind = "posture"
	KindHandsVisible   Kind = "hands_visible"
	KindMultiplePeople Kind = "multiple_people"
)

// Indicator explains one contribution to the score.
type Indicator struct {
	Kind   Kind
	Text   string
	Weight float64
}

// Result is the outcome of scoring a single frame.
type Result struct {
	Score      float64
	Indicators []Indicator
	Level      WarningLevel
}

// Labels returns the human-readable indicator texts in order.
// It never returns nil so JSON encodes an empty list as [].
func (r Result) Labels() []string {
	out := make([]string, len(r.Indicators))
	for i, ind := range r.Indicators {
		out[i] = ind.Text
	}
	return out
}

// Scorer computes a Result for a frame.
type Scorer interface {
	Score(ctx context.Context, frame *model.LandmarkFrame) (Result, error)
}

// IndicatorScorer implements Scorer with the fixed threshold policy.
type IndicatorScorer struct{}

// NewIndicatorScorer returns the threshold-based scorer.
func NewIndicatorScorer() *IndicatorScorer {
	return &IndicatorScorer{}
}

// Score evaluates the frame. It never fails; the error is part of the
// Scorer contract for implementations backed by a model.
func (s *IndicatorScorer) Score(_ context.Context, frame *model.LandmarkFrame) (Result, error) {
	return Evaluate(frame), nil
}

// Evaluate is the pure scoring policy. Absent signals contribute nothing.
func Evaluate(frame *model.LandmarkFrame) Result {
	var (
		sum        float64
		indicators = []Indicator{}
	)
	fire := func(kind Kind, text string, weight float64) {
		indicators = append(indicators, Indicator{Kind: kind, Text: text, Weight: weight})
		sum += weight
	}

	if pose, ok := frame.Pose.Get(); ok {
		if diff, ok := verticalGap(pose, model.LeftEye, model.RightEye); ok && diff > eyeTiltThreshold {
			fire(KindHeadTilt, "Head tilt detected", headTiltWeight)
		}

		if nose, ok := pose.Landmark(model.Nose); ok && nose.Y > lookingDownThreshold {
			fire(KindLookingDown, "Looking down/away", lookingDownWeight)
		}

		if diff, ok := verticalGap(pose, model.LeftShoulder, model.RightShoulder); ok && diff > shoulderDiffThreshold {
			fire(KindPosture, "Abnormal posture", postureWeight)
		}

		// Hands only count while a pose is tracked.
		if n := frame.HandCount(); n > 0 {
			fire(KindHandsVisible, fmt.Sprintf("Hands visible (%d)", n), perHandWeight*float64(n))
		}
	}

	if m := frame.FaceCount(); m > 1 {
		fire(KindMultiplePeople, fmt.Sprintf("Multiple people detected (%d)", m), multiplePeopleWeight)
	}

	score := math.Min(sum, maxScore)
	return Result{
		Score:      score,
		Indicators: indicators,
		Level:      LevelFor(score),
	}
}

// verticalGap returns |a.y - b.y| when both landmarks are present.
func verticalGap(pose model.Pose, a, b model.BodyPart) (float64, bool) {
	la, okA := pose.Landmark(a)
	lb, okB := pose.Landmark(b)
	if !okA || !okB {
		return 0, false
	}
	return math.Abs(la.Y - lb.Y), true
}
