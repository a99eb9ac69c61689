package animation

import "time"

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(float64) float64

// Linear leaves progress unchanged.
func Linear(t float64) float64 { return t }

// EaseOutCubic decelerates towards the end.
func EaseOutCubic(t float64) float64 {
	inverse := 1 - t
	return 1 - inverse*inverse*inverse
}

// EaseInCubic accelerates from the start.
func EaseInCubic(t float64) float64 {
	return t * t * t
}

// Transition animates a value from From to To over Duration.
type Transition struct {
	Duration time.Duration
	From     float64
	To       float64
	Easing   Easing
}

// Value returns the transition value at linear progress t.
func (transition Transition) Value(t float64) float64 {
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	easing := transition.Easing
	if easing == nil {
		easing = Linear
	}
	return transition.From + (transition.To-transition.From)*easing(t)
}

// Config contains the panel transitions.
type Config struct {
	Enter         Transition
	Leave         Transition
	FrameInterval time.Duration
}
