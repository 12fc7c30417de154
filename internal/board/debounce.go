package board

// Debouncer coalesces rapid input into one trailing action using a
// generation counter: every keystroke bumps the generation and schedules a
// timer carrying it; only the timer whose generation is still current fires.
type Debouncer struct {
	generation int
}

// Bump invalidates pending timers and returns the generation the next timer
// should carry.
func (d *Debouncer) Bump() int {
	d.generation++
	return d.generation
}

// Current reports whether a firing timer's generation is still the latest.
func (d *Debouncer) Current(generation int) bool {
	return generation == d.generation
}
