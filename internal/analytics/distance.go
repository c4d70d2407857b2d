package analytics

// deltaDistance returns the forward distance traveled between two
// lap_distance readings, substituting cfg.WrapFallbackMeters whenever the
// raw delta is negative — i.e. the car crossed the start/finish line
// between the two samples. Spec.md §4.6/§9: "a negative Δlap_distance is
// replaced with a large positive constant so the measurement remains
// positive."
func (cfg Config) deltaDistance(from, to float64) float64 {
	d := to - from
	if d < 0 {
		return cfg.WrapFallbackMeters
	}
	return d
}
