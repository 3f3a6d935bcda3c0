package pipeline

// shouldSample implements the sampling-period rule from spec.md §4.2: a
// period of 0 disables tracing entirely; a period of N > 0 samples exactly
// one out of every N consecutive admitted frames. The decision is made by
// peeking the frame counter's value one ingress ahead of where it
// currently sits (the actual increment happens later, inside
// AddFrameWithTelemetry) — a peek, not a read-modify-write, so callers
// that go straight to AddFrameWithTelemetry bypass sampling entirely and
// must supply their own parent context.
func shouldSample(nextFrameCounter, period int64) bool {
	if period <= 0 {
		return false
	}
	return nextFrameCounter%period == 0
}
