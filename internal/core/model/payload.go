package model

import "fmt"

// TimerMode is the kind of timer a payload describes.
type TimerMode string

const (
	TimerIdle      TimerMode = "idle"
	TimerCountdown TimerMode = "countdown"
	TimerStopwatch TimerMode = "stopwatch"
)

// Active reports whether the mode is a running kind of timer.
func (mode TimerMode) Active() bool {
	return mode == TimerCountdown || mode == TimerStopwatch
}

// TimerPayload is the live, never persisted, view of the timer.
type TimerPayload struct {
	Mode      TimerMode `json:"mode"`
	Remaining int       `json:"remaining"`
	Elapsed   int       `json:"elapsed"`
	Label     string    `json:"label"`
	TaskID    string    `json:"taskId,omitempty"`
	IsPaused  bool      `json:"isPaused"`
}

// DisplaySeconds is the value a clock face shows for the payload.
func (payload TimerPayload) DisplaySeconds() int {
	if payload.Mode == TimerCountdown {
		return payload.Remaining
	}
	return payload.Elapsed
}

// FormatMMSS renders seconds as mm:ss, clamping negatives to zero.
func FormatMMSS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatHHMMSS renders seconds as hh:mm:ss, clamping negatives to zero.
func FormatHHMMSS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
