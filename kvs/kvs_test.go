package kvs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zapdos-labs/videopipeline/videoframe"
)

func TestSetGetDelAttribute(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	s.SetAttributes([]videoframe.Attribute{
		{Namespace: "cam", Name: "zone", Value: "north"},
	}, nil)

	attr, ok := s.GetAttribute("cam", "zone")
	require.True(t, ok)
	require.Equal(t, "north", attr.Value)

	prev, ok := s.DelAttribute("cam", "zone")
	require.True(t, ok)
	require.Equal(t, "north", prev.Value)

	_, ok = s.GetAttribute("cam", "zone")
	require.False(t, ok)
}

func TestSetAttributesOverwriteResetsTTL(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	shortTTL := 10 * time.Millisecond
	s.SetAttributes([]videoframe.Attribute{{Namespace: "cam", Name: "zone", Value: "north"}}, &shortTTL)
	time.Sleep(20 * time.Millisecond)

	// Re-set before it's read: TTL should reset, not leave a stale expiry.
	s.SetAttributes([]videoframe.Attribute{{Namespace: "cam", Name: "zone", Value: "south"}}, nil)

	attr, ok := s.GetAttribute("cam", "zone")
	require.True(t, ok)
	require.Equal(t, "south", attr.Value)
}

func TestGetAttributeExpiresLazily(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	ttl := 10 * time.Millisecond
	s.SetAttributes([]videoframe.Attribute{{Namespace: "cam", Name: "zone", Value: "north"}}, &ttl)

	time.Sleep(20 * time.Millisecond)
	_, ok := s.GetAttribute("cam", "zone")
	require.False(t, ok)
}

func TestSearchAttributesGlobMatching(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	s.SetAttributes([]videoframe.Attribute{
		{Namespace: "cam1", Name: "zone", Value: "a"},
		{Namespace: "cam2", Name: "zone", Value: "b"},
		{Namespace: "cam1", Name: "fps", Value: "c"},
	}, nil)

	matches, err := s.SearchAttributes("cam*", "zone")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	keys, err := s.SearchKeys("cam1", "*")
	require.NoError(t, err)
	require.Len(t, keys, 2)
}

func TestSearchAttributesDefaultsEmptyPatternToWildcard(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)
	s.SetAttributes([]videoframe.Attribute{{Namespace: "cam1", Name: "zone", Value: "a"}}, nil)

	matches, err := s.SearchAttributes("", "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestSearchAttributesInvalidPattern(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	_, err = s.SearchAttributes("[", "*")
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestDelAttributesRemovesAllMatches(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)

	s.SetAttributes([]videoframe.Attribute{
		{Namespace: "cam1", Name: "zone", Value: "a"},
		{Namespace: "cam1", Name: "fps", Value: "b"},
		{Namespace: "cam2", Name: "zone", Value: "c"},
	}, nil)

	require.NoError(t, s.DelAttributes("cam1", "*"))

	_, ok := s.GetAttribute("cam1", "zone")
	require.False(t, ok)
	_, ok = s.GetAttribute("cam1", "fps")
	require.False(t, ok)
	_, ok = s.GetAttribute("cam2", "zone")
	require.True(t, ok)
}

func TestStoreEvictsUnderCapacityPressure(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	s.SetAttributes([]videoframe.Attribute{{Namespace: "a", Name: "x", Value: 1}}, nil)
	s.SetAttributes([]videoframe.Attribute{{Namespace: "b", Name: "x", Value: 2}}, nil)
	s.SetAttributes([]videoframe.Attribute{{Namespace: "c", Name: "x", Value: 3}}, nil)

	require.Equal(t, 2, s.Len())
}
