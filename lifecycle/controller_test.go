package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zapdos-labs/videopipeline/pipeline"
	"github.com/zapdos-labs/videopipeline/tracing"
)

func TestShutdownRejectsWhenNoTokenSet(t *testing.T) {
	c := New()
	err := c.Shutdown("anything", ModeGraceful)
	require.ErrorIs(t, err, ErrNoShutdownToken)
}

func TestShutdownRejectsTokenMismatch(t *testing.T) {
	c := New()
	c.SetShutdownToken("secret")
	err := c.Shutdown("wrong", ModeGraceful)
	require.ErrorIs(t, err, ErrTokenMismatch)
}

func TestShutdownSucceedsAndSetsStatus(t *testing.T) {
	c := New()
	c.SetShutdownToken("secret")
	require.NoError(t, c.Shutdown("secret", ModeGraceful))
	require.Equal(t, StatusShutdown, c.GetStatus())
}

func TestShutdownTwiceFails(t *testing.T) {
	c := New()
	c.SetShutdownToken("secret")
	require.NoError(t, c.Shutdown("secret", ModeGraceful))
	err := c.Shutdown("secret", ModeGraceful)
	require.ErrorIs(t, err, ErrAlreadyShuttingDown)
}

func TestSetShutdownTokenTwiceIsLenient(t *testing.T) {
	c := New()
	c.SetShutdownToken("first")
	c.SetShutdownToken("second")
	require.NoError(t, c.Shutdown("first", ModeGraceful))
}

func TestSetStatusWritesUnconditionally(t *testing.T) {
	c := New()
	require.Equal(t, StatusStopped, c.GetStatus())
	c.SetStatus(StatusRunning)
	require.Equal(t, StatusRunning, c.GetStatus())
	c.SetStatus(StatusStopped)
	require.Equal(t, StatusStopped, c.GetStatus())
}

func TestStatusStringLowercased(t *testing.T) {
	require.Equal(t, "running", StatusRunning.String())
	require.Equal(t, "stopped", StatusStopped.String())
	require.Equal(t, "shutdown", StatusShutdown.String())
}

func TestRegisterUnregisterPipelineByIdentity(t *testing.T) {
	c := New()
	p1, err := pipeline.New(tracing.NoopTracer{}, []pipeline.StageSpec{{Name: "a", Kind: pipeline.IndependentFrame}})
	require.NoError(t, err)
	p2, err := pipeline.New(tracing.NoopTracer{}, []pipeline.StageSpec{{Name: "b", Kind: pipeline.IndependentFrame}})
	require.NoError(t, err)

	c.RegisterPipeline(p1)
	c.RegisterPipeline(p2)
	require.Len(t, c.Pipelines(), 2)

	c.UnregisterPipeline(p1)
	got := c.Pipelines()
	require.Len(t, got, 1)
	require.Same(t, p2, got[0])
}

func TestRegisterPipelineDuplicateTolerated(t *testing.T) {
	c := New()
	p, err := pipeline.New(tracing.NoopTracer{}, []pipeline.StageSpec{{Name: "a", Kind: pipeline.IndependentFrame}})
	require.NoError(t, err)

	c.RegisterPipeline(p)
	c.RegisterPipeline(p)
	require.Len(t, c.Pipelines(), 2)
}
