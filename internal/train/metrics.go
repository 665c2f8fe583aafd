package train

// Window accumulates per-channel sums across batches and reports their
// means over the window.
type Window struct {
	sums   map[string]float64
	counts map[string]int
}

// Record adds one batch's channel values to the window.
func (w *Window) Record(channels map[string]float64) {
	if w.sums == nil {
		w.sums = make(map[string]float64)
		w.counts = make(map[string]int)
	}
	for name, value := range channels {
		w.sums[name] += value
		w.counts[name]++
	}
}

// Means returns the per-channel means and resets the window.
func (w *Window) Means() map[string]float64 {
	means := make(map[string]float64, len(w.sums))
	for name, sum := range w.sums {
		means[name] = sum / float64(w.counts[name])
	}
	w.sums = nil
	w.counts = nil
	return means
}
