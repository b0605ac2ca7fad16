// Package rates implements fixed-window counters for throttling clients.
package rates

// Window counts events in the current fixed window. Units are up to the
// caller (ticks, milliseconds).
type Window struct {
	Start uint64
	Count int
}

// Allow records one event at now. It reports whether the event fits within
// max per window and, when it does not, how long until the window resets.
// A zero window or non-positive max allows everything.
func (w *Window) Allow(now, window uint64, max int) (ok bool, cooldown uint64) {
	if window == 0 || max <= 0 {
		return true, 0
	}
	if now < w.Start || now-w.Start >= window {
		w.Start = now
		w.Count = 0
	}
	w.Count++
	if w.Count <= max {
		return true, 0
	}
	return false, (w.Start + window) - now
}
