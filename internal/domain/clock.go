package domain

import "github.com/jonboulle/clockwork"

// clock supplies "today" for fetch-window defaulting. ComputeWindow is the
// only consumer; everything else in the package is pure in its inputs.
var clock = clockwork.NewRealClock()

// SetClock replaces the window-defaulting time source, letting tests pin
// today to a fixed date. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
