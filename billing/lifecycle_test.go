package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTracker_HappyPath(t *testing.T) {
	var anomalies []Anomaly
	tracker := NewTracker(zap.Must(zap.NewDevelopment()), func(a Anomaly) {
		anomalies = append(anomalies, a)
	})

	for _, state := range []PurchaseState{
		StateCreated,
		StateInvoiceCreated,
		StateConfirmed,
		StatePaid,
		StateConsumed,
	} {
		got := tracker.Observe("p1", state)
		require.Equal(t, state, got)
	}
	require.Empty(t, anomalies)

	state, ok := tracker.State("p1")
	require.True(t, ok)
	require.Equal(t, StateConsumed, state)
}

func TestTracker_SideBranchesFromAnyNonTerminal(t *testing.T) {
	log := zap.Must(zap.NewDevelopment())

	for _, branch := range []PurchaseState{StateCancelled, StatePaused, StateTerminated} {
		for _, from := range []PurchaseState{StateCreated, StateInvoiceCreated, StateConfirmed, StatePaid} {
			var anomalies []Anomaly
			tracker := NewTracker(log, func(a Anomaly) { anomalies = append(anomalies, a) })

			tracker.Observe("p", from)
			tracker.Observe("p", branch)
			require.Empty(t, anomalies, "%s -> %s should be reachable", from, branch)
		}
	}
}

func TestTracker_UnreachableTransitionIsAnomalyButAccepted(t *testing.T) {
	var anomalies []Anomaly
	tracker := NewTracker(zap.Must(zap.NewDevelopment()), func(a Anomaly) {
		anomalies = append(anomalies, a)
	})

	tracker.Observe("p1", StatePaid)
	got := tracker.Observe("p1", StateCreated)

	// Vendor state wins even though the transition is bogus.
	require.Equal(t, StateCreated, got)
	require.Len(t, anomalies, 1)
	require.Equal(t, AnomalyUnreachableTransition, anomalies[0].Kind)
	require.Equal(t, "p1", anomalies[0].Key)
}

func TestTracker_SkippedStepIsAnomaly(t *testing.T) {
	var anomalies []Anomaly
	tracker := NewTracker(zap.Must(zap.NewDevelopment()), func(a Anomaly) {
		anomalies = append(anomalies, a)
	})

	tracker.Observe("p1", StateCreated)
	tracker.Observe("p1", StatePaid)
	require.Len(t, anomalies, 1)
}

func TestTracker_RepeatedStateIsNotAnomaly(t *testing.T) {
	var anomalies []Anomaly
	tracker := NewTracker(zap.Must(zap.NewDevelopment()), func(a Anomaly) {
		anomalies = append(anomalies, a)
	})

	tracker.Observe("p1", StatePaid)
	tracker.Observe("p1", StatePaid)
	require.Empty(t, anomalies)
}

func TestTracker_TerminalStatesAreFinal(t *testing.T) {
	log := zap.Must(zap.NewDevelopment())

	for _, terminal := range []PurchaseState{StateConsumed, StateClosed, StateCancelled, StateTerminated} {
		var anomalies []Anomaly
		tracker := NewTracker(log, func(a Anomaly) { anomalies = append(anomalies, a) })

		tracker.Observe("p", terminal)
		tracker.Observe("p", StatePaid)
		require.Len(t, anomalies, 1, "transition out of %s should be flagged", terminal)
	}
}

func TestTracker_PausedResumesAnywhere(t *testing.T) {
	var anomalies []Anomaly
	tracker := NewTracker(zap.Must(zap.NewDevelopment()), func(a Anomaly) {
		anomalies = append(anomalies, a)
	})

	tracker.Observe("p1", StateConfirmed)
	tracker.Observe("p1", StatePaused)
	tracker.Observe("p1", StatePaid)
	require.Empty(t, anomalies)
}

func TestTracker_Confirmed(t *testing.T) {
	tracker := NewTracker(zap.Must(zap.NewDevelopment()), nil)

	require.False(t, tracker.Confirmed("p1"))

	tracker.Observe("p1", StateInvoiceCreated)
	require.False(t, tracker.Confirmed("p1"))

	tracker.Observe("p1", StateConfirmed)
	require.True(t, tracker.Confirmed("p1"))

	tracker.Observe("p2", StatePaid)
	require.True(t, tracker.Confirmed("p2"))

	tracker.Observe("p3", StateCancelled)
	require.False(t, tracker.Confirmed("p3"))
}

func TestTracker_Forget(t *testing.T) {
	tracker := NewTracker(zap.Must(zap.NewDevelopment()), nil)

	tracker.Observe("p1", StatePaid)
	tracker.Forget("p1")

	_, ok := tracker.State("p1")
	require.False(t, ok)
}

func TestPurchaseState_Helpers(t *testing.T) {
	require.True(t, StateConsumed.Terminal())
	require.True(t, StateClosed.Terminal())
	require.True(t, StateCancelled.Terminal())
	require.True(t, StateTerminated.Terminal())
	require.False(t, StatePaid.Terminal())
	require.False(t, StatePaused.Terminal())
	require.False(t, StateUnrecognized.Terminal())

	require.True(t, StatePaid.AtLeast(StateConfirmed))
	require.True(t, StateConfirmed.AtLeast(StateConfirmed))
	require.False(t, StateInvoiceCreated.AtLeast(StateConfirmed))
	require.False(t, StateCancelled.AtLeast(StateConfirmed))
	require.False(t, StateUnrecognized.AtLeast(StateCreated))
}
