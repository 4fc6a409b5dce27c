package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_OrderedLifecycle(t *testing.T) {
	tr := NewTracker(nil)

	require.NoError(t, tr.Activate(StepCategorize))
	require.NoError(t, tr.Complete(StepCategorize))
	require.NoError(t, tr.Activate(StepCollect))
	require.NoError(t, tr.Complete(StepCollect))

	assert.Equal(t, StatusComplete, tr.Status(StepCategorize))
	assert.Equal(t, StatusPending, tr.Status(StepRank))
	assert.False(t, tr.Terminal())
}

func TestTracker_RejectsOutOfOrderActivation(t *testing.T) {
	tr := NewTracker(nil)

	err := tr.Activate(StepCollect)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "categorize")
	assert.Equal(t, StatusPending, tr.Status(StepCollect))
}

func TestTracker_RejectsDoubleActivation(t *testing.T) {
	tr := NewTracker(nil)

	require.NoError(t, tr.Activate(StepCategorize))
	assert.Error(t, tr.Activate(StepCategorize))
}

func TestTracker_CompleteRequiresActive(t *testing.T) {
	tr := NewTracker(nil)

	assert.Error(t, tr.Complete(StepCategorize))
}

func TestTracker_FailTerminatesSession(t *testing.T) {
	tr := NewTracker(nil)

	require.NoError(t, tr.Activate(StepCategorize))
	require.NoError(t, tr.Fail(StepCategorize, "model unavailable"))

	assert.True(t, tr.Failed())
	assert.True(t, tr.Terminal())
	assert.Equal(t, "model unavailable", tr.ErrorMessage())

	err := tr.Activate(StepCollect)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already failed")
}

func TestTracker_TerminalWhenAllComplete(t *testing.T) {
	tr := NewTracker(nil)

	for _, s := range DefaultSteps() {
		require.NoError(t, tr.Activate(s))
		require.NoError(t, tr.Complete(s))
	}
	assert.True(t, tr.Terminal())
	assert.False(t, tr.Failed())
}

func TestTracker_SubscriberSeesTransitions(t *testing.T) {
	tr := NewTracker(nil)

	var seen []Transition
	tr.Subscribe(func(tn Transition) { seen = append(seen, tn) })

	require.NoError(t, tr.Activate(StepCategorize))
	require.NoError(t, tr.Complete(StepCategorize))

	require.Len(t, seen, 2)
	assert.Equal(t, StepCategorize, seen[0].Step)
	assert.Equal(t, StatusActive, seen[0].Status)
	assert.Equal(t, StatusComplete, seen[1].Status)
}

func TestTracker_SnapshotOrder(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Activate(StepCategorize))

	snap := tr.Snapshot()
	require.Len(t, snap, 5)
	assert.Equal(t, StepCategorize, snap[0].Step)
	assert.Equal(t, StatusActive, snap[0].Status)
	assert.Equal(t, StepTitles, snap[4].Step)
	assert.Equal(t, StatusPending, snap[4].Status)
}

func TestTracker_MultipleSubscribersAllNotified(t *testing.T) {
	tr := NewTracker(nil)

	var first, second []Transition
	tr.Subscribe(func(tn Transition) { first = append(first, tn) })
	tr.Subscribe(func(tn Transition) { second = append(second, tn) })

	require.NoError(t, tr.Activate(StepCategorize))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, StepCategorize, first[0].Step)
	assert.Equal(t, StepCategorize, second[0].Step)
}
