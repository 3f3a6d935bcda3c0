package kvs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zapdos-labs/videopipeline/videoframe"
)

type fakeMetricsSink struct {
	sizes     []int
	evictions int
}

func (f *fakeMetricsSink) SetSize(n int) { f.sizes = append(f.sizes, n) }
func (f *fakeMetricsSink) IncEvictions() { f.evictions++ }

func (f *fakeMetricsSink) lastSize() int {
	if len(f.sizes) == 0 {
		return -1
	}
	return f.sizes[len(f.sizes)-1]
}

func TestSetAttributesReportsSizeAndEvictions(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	sink := &fakeMetricsSink{}
	s.SetMetricsSink(sink)

	s.SetAttributes([]videoframe.Attribute{{Namespace: "cam", Name: "zone", Value: "north"}}, nil)
	require.Equal(t, 1, sink.lastSize())
	require.Equal(t, 0, sink.evictions)

	s.SetAttributes([]videoframe.Attribute{{Namespace: "cam", Name: "other", Value: "east"}}, nil)
	require.Equal(t, 1, sink.lastSize())
	require.Equal(t, 1, sink.evictions)
}

func TestDelAttributeReportsSize(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)
	sink := &fakeMetricsSink{}
	s.SetMetricsSink(sink)

	s.SetAttributes([]videoframe.Attribute{{Namespace: "cam", Name: "zone", Value: "north"}}, nil)
	s.DelAttribute("cam", "zone")
	require.Equal(t, 0, sink.lastSize())
}

func TestSetMetricsSinkNilRestoresNoop(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)
	s.SetMetricsSink(nil)
	s.SetAttributes([]videoframe.Attribute{{Namespace: "cam", Name: "zone", Value: "north"}}, nil)
}
