package animation

import "time"

// DefaultConfig fades and slides the panel in slightly faster than the
// leave delay of the window coordinator, so the panel is gone before it hides.
func DefaultConfig() Config {
	return Config{
		Enter: Transition{
			Duration: 180 * time.Millisecond,
			From:     0,
			To:       1,
			Easing:   EaseOutCubic,
		},
		Leave: Transition{
			Duration: 160 * time.Millisecond,
			From:     1,
			To:       0,
			Easing:   EaseInCubic,
		},
		FrameInterval: 16 * time.Millisecond,
	}
}
