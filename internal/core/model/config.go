package model

import "time"

// IdlePauseConfig pauses a running timer once the user stops interacting.
type IdlePauseConfig struct {
	Enabled       bool
	After         time.Duration
	CheckInterval time.Duration
}

// TimerConfig contains runtime settings for the timer state machine.
type TimerConfig struct {
	// DefaultCountdown is the preset a countdown returns to after a confirm.
	DefaultCountdown time.Duration
	CountdownLabel   string
	StopwatchLabel   string

	Idle IdlePauseConfig
}

// DefaultTimerConfig mirrors the 25 minute focus block.
func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		DefaultCountdown: 25 * time.Minute,
		CountdownLabel:   "Focus",
		StopwatchLabel:   "Stopwatch",
		Idle: IdlePauseConfig{
			Enabled:       false,
			After:         5 * time.Minute,
			CheckInterval: 5 * time.Second,
		},
	}
}
