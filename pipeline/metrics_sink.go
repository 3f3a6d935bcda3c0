package pipeline

// MetricsSink receives pipeline activity counters as payloads are
// ingested, deleted, and moved between stages. Optional collaborator: a
// Pipeline with none wired behaves exactly as before, since
// noopMetricsSink discards every call.
type MetricsSink interface {
	IncPayloadsIngested()
	IncPayloadsDeleted()
	SetStageQueueLen(stage string, n int)
}

type noopMetricsSink struct{}

func (noopMetricsSink) IncPayloadsIngested()         {}
func (noopMetricsSink) IncPayloadsDeleted()          {}
func (noopMetricsSink) SetStageQueueLen(string, int) {}

// SetMetricsSink wires m as the pipeline's metrics collaborator. Intended
// to be called once at startup before the pipeline serves traffic; a nil
// sink restores the no-op default.
func (p *Pipeline) SetMetricsSink(m MetricsSink) {
	if m == nil {
		m = noopMetricsSink{}
	}
	p.metrics = m
}
