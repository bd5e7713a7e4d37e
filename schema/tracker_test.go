package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/topiclens/pkg/jsonfield"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tracker, err := NewTracker(50)
	require.NoError(t, err)
	return tracker
}

func TestNewTracker_InvalidCapacity(t *testing.T) {
	_, err := NewTracker(0)
	assert.Error(t, err)
}

func TestTracker_FirstSightingReportsNothing(t *testing.T) {
	tracker := newTestTracker(t)

	changes := tracker.Process("topic/test", []byte(`{"name": "a", "value": 42}`))
	assert.Empty(t, changes)
	assert.Equal(t, 1, tracker.TopicCount())

	// Same shape, different values
	changes = tracker.Process("topic/test", []byte(`{"name": "b", "value": 100}`))
	assert.Empty(t, changes)
}

func TestTracker_FieldAdded(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Process("topic/test", []byte(`{"name": "a", "value": 42}`))
	changes := tracker.Process("topic/test", []byte(`{"name": "a", "value": 42, "extra": "hi"}`))

	require.Len(t, changes, 1)
	assert.Equal(t, FieldAdded, changes[0].Type)
	assert.Equal(t, "extra", changes[0].FieldPath)
	assert.Nil(t, changes[0].OldType)
	require.NotNil(t, changes[0].NewType)
	assert.Equal(t, jsonfield.TypeString, *changes[0].NewType)
}

func TestTracker_FieldRemoved(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Process("topic/test", []byte(`{"name": "a", "value": 42}`))
	changes := tracker.Process("topic/test", []byte(`{"name": "a"}`))

	require.Len(t, changes, 1)
	assert.Equal(t, FieldRemoved, changes[0].Type)
	assert.Equal(t, "value", changes[0].FieldPath)
	require.NotNil(t, changes[0].OldType)
	assert.Equal(t, jsonfield.TypeNumber, *changes[0].OldType)
	assert.Nil(t, changes[0].NewType)
}

func TestTracker_TypeChanged(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Process("topic/test", []byte(`{"value": 42}`))
	changes := tracker.Process("topic/test", []byte(`{"value": "forty-two"}`))

	require.Len(t, changes, 1)
	assert.Equal(t, TypeChanged, changes[0].Type)
	assert.Equal(t, "value", changes[0].FieldPath)
	assert.Equal(t, jsonfield.TypeNumber, *changes[0].OldType)
	assert.Equal(t, jsonfield.TypeString, *changes[0].NewType)
}

func TestTracker_NestedAndArrayPaths(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Process("t", []byte(`{"data": {"power": 1}, "readings": [1]}`))

	s, ok := tracker.Schema("t")
	require.True(t, ok)
	assert.Equal(t, jsonfield.TypeObject, s["data"])
	assert.Equal(t, jsonfield.TypeNumber, s["data.power"])
	assert.Equal(t, jsonfield.TypeArray, s["readings"])
	assert.Equal(t, jsonfield.TypeNumber, s["readings[0]"])

	// Array element type flips
	changes := tracker.Process("t", []byte(`{"data": {"power": 1}, "readings": ["a"]}`))
	require.Len(t, changes, 1)
	assert.Equal(t, TypeChanged, changes[0].Type)
	assert.Equal(t, "readings[0]", changes[0].FieldPath)
}

func TestTracker_MixedChangesAreOrdered(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Process("t", []byte(`{"a": 1, "b": 2, "c": 3}`))
	changes := tracker.Process("t", []byte(`{"b": "two", "c": 3, "d": 4, "e": 5}`))

	require.Len(t, changes, 4)
	assert.Equal(t, FieldAdded, changes[0].Type)
	assert.Equal(t, "d", changes[0].FieldPath)
	assert.Equal(t, FieldAdded, changes[1].Type)
	assert.Equal(t, "e", changes[1].FieldPath)
	assert.Equal(t, FieldRemoved, changes[2].Type)
	assert.Equal(t, "a", changes[2].FieldPath)
	assert.Equal(t, TypeChanged, changes[3].Type)
	assert.Equal(t, "b", changes[3].FieldPath)
}

func TestTracker_NonJSONIsNoOp(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Process("t", []byte(`{"a": 1}`))
	changes := tracker.Process("t", []byte("not json at all"))
	assert.Empty(t, changes)

	// Stored schema survives the garbage payload.
	changes = tracker.Process("t", []byte(`{"a": 1}`))
	assert.Empty(t, changes)
	assert.Equal(t, 1, tracker.TopicCount())
}

func TestTracker_TopicsAreIndependent(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Process("a", []byte(`{"x": 1}`))
	changes := tracker.Process("b", []byte(`{"x": "str"}`))
	assert.Empty(t, changes, "different topic establishes its own schema")
	assert.Equal(t, 2, tracker.TopicCount())
}

func TestTracker_HistoryCapAndClear(t *testing.T) {
	tracker, err := NewTracker(3)
	require.NoError(t, err)

	tracker.Process("t", []byte(`{"a": 1}`))
	tracker.Process("t", []byte(`{"b": 1}`)) // +b -a
	tracker.Process("t", []byte(`{"c": 1}`)) // +c -b
	tracker.Process("t", []byte(`{"d": 1}`)) // +d -c

	recent := tracker.RecentChanges()
	require.Len(t, recent, 3)
	assert.Equal(t, "b", recent[0].FieldPath)
	assert.Equal(t, FieldRemoved, recent[0].Type)
	assert.Equal(t, "c", recent[2].FieldPath)
	assert.Equal(t, FieldRemoved, recent[2].Type)

	tracker.ClearChanges()
	assert.Empty(t, tracker.RecentChanges())
	assert.Equal(t, 1, tracker.TopicCount())

	tracker.Clear()
	assert.Zero(t, tracker.TopicCount())
}

func TestTracker_HasRecentChanges(t *testing.T) {
	tracker := newTestTracker(t)
	assert.False(t, tracker.HasRecentChanges(time.Minute))

	tracker.Process("t", []byte(`{"a": 1}`))
	tracker.Process("t", []byte(`{"a": "s"}`))
	assert.True(t, tracker.HasRecentChanges(time.Minute))
}

func TestChangeType_Strings(t *testing.T) {
	assert.Equal(t, "added", FieldAdded.String())
	assert.Equal(t, "removed", FieldRemoved.String())
	assert.Equal(t, "type_changed", TypeChanged.String())
	assert.Equal(t, "+", FieldAdded.Symbol())
	assert.Equal(t, "-", FieldRemoved.Symbol())
	assert.Equal(t, "~", TypeChanged.Symbol())
}
