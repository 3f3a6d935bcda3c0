package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMetricsSink struct {
	ingested int
	deleted  int
	lens     map[string]int
}

func newFakeMetricsSink() *fakeMetricsSink {
	return &fakeMetricsSink{lens: make(map[string]int)}
}

func (f *fakeMetricsSink) IncPayloadsIngested()                 { f.ingested++ }
func (f *fakeMetricsSink) IncPayloadsDeleted()                  { f.deleted++ }
func (f *fakeMetricsSink) SetStageQueueLen(stage string, n int) { f.lens[stage] = n }

func TestPipelineReportsIngestAndQueueLen(t *testing.T) {
	p := newTestPipeline(t)
	sink := newFakeMetricsSink()
	p.SetMetricsSink(sink)

	_, err := p.AddFrame(context.Background(), "ingress", newTestFrame("cam1"))
	require.NoError(t, err)

	require.Equal(t, 1, sink.ingested)
	require.Equal(t, 1, sink.lens["ingress"])
}

func TestPipelineReportsDeleteAndQueueLen(t *testing.T) {
	p := newTestPipeline(t)
	sink := newFakeMetricsSink()
	p.SetMetricsSink(sink)

	id, err := p.AddFrame(context.Background(), "ingress", newTestFrame("cam1"))
	require.NoError(t, err)

	_, err = p.Delete(id)
	require.NoError(t, err)

	require.Equal(t, 1, sink.deleted)
	require.Equal(t, 0, sink.lens["ingress"])
}

func TestPipelineReportsBothStagesOnMove(t *testing.T) {
	p := newTestPipeline(t)
	sink := newFakeMetricsSink()
	p.SetMetricsSink(sink)

	id, err := p.AddFrame(context.Background(), "ingress", newTestFrame("cam1"))
	require.NoError(t, err)

	require.NoError(t, p.MoveAsIs(context.Background(), "detect", []PayloadID{id}))

	require.Equal(t, 0, sink.lens["ingress"])
	require.Equal(t, 1, sink.lens["detect"])
}

func TestSetMetricsSinkNilRestoresNoop(t *testing.T) {
	p := newTestPipeline(t)
	p.SetMetricsSink(nil)
	_, err := p.AddFrame(context.Background(), "ingress", newTestFrame("cam1"))
	require.NoError(t, err)
}
