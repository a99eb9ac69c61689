// Package platform contains the OS specific pieces: the single instance
// lock and user idle detection.
package platform

import "time"

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

// NewIdleProvider returns a platform-specific idle provider. Its errors wrap
// timer.ErrIdleUnsupported where detection is impossible.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}
