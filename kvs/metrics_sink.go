package kvs

// MetricsSink receives KVS activity counters as entries are set and
// evicted. Optional collaborator: a Store with none wired behaves exactly
// as before, since noopMetricsSink discards every call.
type MetricsSink interface {
	SetSize(n int)
	IncEvictions()
}

type noopMetricsSink struct{}

func (noopMetricsSink) SetSize(int)   {}
func (noopMetricsSink) IncEvictions() {}

// SetMetricsSink wires m as the store's metrics collaborator. Intended to
// be called once at startup before the store serves traffic; a nil sink
// restores the no-op default.
func (s *Store) SetMetricsSink(m MetricsSink) {
	if m == nil {
		m = noopMetricsSink{}
	}
	s.metrics = m
}
