package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReconciler(t *testing.T) (*Reconciler, *[]Anomaly) {
	anomalies := new([]Anomaly)
	r := NewReconciler(zap.Must(zap.NewDevelopment()), func(a Anomaly) {
		*anomalies = append(*anomalies, a)
	}, time.Minute)
	return r, anomalies
}

func successResult(productID, purchaseID string) PaymentResult {
	return PaymentResult{
		Outcome:    OutcomeSuccess,
		ProductID:  productID,
		PurchaseID: purchaseID,
	}
}

func TestReconciler_DirectWins_EventDuplicateDropped(t *testing.T) {
	r, anomalies := newTestReconciler(t)

	task := r.Begin("sub.monthly")
	res := successResult("sub.monthly", "purchase-1")

	won, toWaiter := r.Resolve(productKey("sub.monthly"), res, ChannelDirect)
	require.True(t, won)
	require.True(t, toWaiter)

	got, err := task.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, res, got)

	// Duplicate from the event channel: dropped silently, no anomaly.
	won, toWaiter = r.Resolve("", res, ChannelEvent)
	require.False(t, won)
	require.False(t, toWaiter)
	require.Empty(t, *anomalies)
}

func TestReconciler_EventWins_DirectDuplicateDropped(t *testing.T) {
	r, anomalies := newTestReconciler(t)

	task := r.Begin("sub.monthly")
	res := successResult("sub.monthly", "purchase-1")

	// The event channel beats the direct response.
	won, toWaiter := r.Resolve("", res, ChannelEvent)
	require.True(t, won)
	require.True(t, toWaiter, "event delivery should complete the in-flight attempt")

	got, err := task.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, res, got)

	won, _ = r.Resolve(productKey("sub.monthly"), res, ChannelDirect)
	require.False(t, won)
	require.Empty(t, *anomalies)
}

func TestReconciler_ConflictForwardsFirstAndReportsAnomaly(t *testing.T) {
	r, anomalies := newTestReconciler(t)

	task := r.Begin("sub.monthly")

	failure := PaymentResult{
		Outcome:    OutcomeFailure,
		ProductID:  "sub.monthly",
		PurchaseID: "purchase-1",
	}
	won, _ := r.Resolve(productKey("sub.monthly"), failure, ChannelDirect)
	require.True(t, won)

	got, err := task.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, got.Outcome)

	// The event channel disagrees; the caller must never see a second
	// outcome.
	success := successResult("sub.monthly", "purchase-1")
	won, toWaiter := r.Resolve("", success, ChannelEvent)
	require.False(t, won)
	require.False(t, toWaiter)

	require.Len(t, *anomalies, 1)
	require.Equal(t, AnomalyConflictingOutcomes, (*anomalies)[0].Kind)
}

func TestReconciler_DuplicateMatchesByPurchaseIDAlias(t *testing.T) {
	r, anomalies := newTestReconciler(t)

	r.Begin("sub.monthly")
	res := successResult("sub.monthly", "purchase-1")
	won, _ := r.Resolve(productKey("sub.monthly"), res, ChannelDirect)
	require.True(t, won)

	// The vendor's late notification carries only the purchase identifier.
	lateDup := PaymentResult{Outcome: OutcomeSuccess, PurchaseID: "purchase-1"}
	won, _ = r.Resolve("", lateDup, ChannelEvent)
	require.False(t, won)
	require.Empty(t, *anomalies)
}

func TestReconciler_EventWinsWithPurchaseIDOnly_DirectStillResolvesWaiter(t *testing.T) {
	r, anomalies := newTestReconciler(t)

	task := r.Begin("sub.monthly")

	// The vendor notification beats the direct response and carries only the
	// purchase identifier, so it cannot be matched to the attempt yet.
	early := PaymentResult{Outcome: OutcomeSuccess, PurchaseID: "purchase-1"}
	won, toWaiter := r.Resolve("", early, ChannelEvent)
	require.True(t, won)
	require.False(t, toWaiter)

	// The direct response carries both identifiers. Its outcome is a
	// duplicate, but it is the first delivery that can reach the waiter.
	full := successResult("sub.monthly", "purchase-1")
	won, toWaiter = r.Resolve(productKey("sub.monthly"), full, ChannelDirect)
	require.False(t, won)
	require.False(t, toWaiter)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := task.Wait(ctx)
	require.NoError(t, err, "the initiating call must not hang on its own duplicate")
	require.Equal(t, OutcomeSuccess, got.Outcome)
	require.Equal(t, "purchase-1", got.PurchaseID)
	require.Empty(t, *anomalies)
}

func TestReconciler_ConflictStillResolvesWaiterWithDeliveredOutcome(t *testing.T) {
	r, anomalies := newTestReconciler(t)

	task := r.Begin("sub.monthly")

	early := PaymentResult{Outcome: OutcomeCancelled, PurchaseID: "purchase-1"}
	won, _ := r.Resolve("", early, ChannelEvent)
	require.True(t, won)

	// The direct response disagrees; the caller observes the outcome that
	// already won, never a second one.
	full := successResult("sub.monthly", "purchase-1")
	won, _ = r.Resolve(productKey("sub.monthly"), full, ChannelDirect)
	require.False(t, won)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := task.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeCancelled, got.Outcome)

	require.Len(t, *anomalies, 1)
	require.Equal(t, AnomalyConflictingOutcomes, (*anomalies)[0].Kind)
}

func TestReconciler_OutOfBandOutcomeHasNoWaiter(t *testing.T) {
	r, _ := newTestReconciler(t)

	res := successResult("sub.monthly", "purchase-9")
	won, toWaiter := r.Resolve("", res, ChannelEvent)
	require.True(t, won)
	require.False(t, toWaiter)
}

func TestReconciler_AbortFailsWaiter(t *testing.T) {
	r, _ := newTestReconciler(t)

	task := r.Begin("sub.monthly")
	r.Abort("sub.monthly", ErrNotInitialized)

	_, err := task.Wait(context.Background())
	require.Error(t, err)
	require.True(t, IsCode(err, ErrorNotInitialized))
}

func TestReconciler_LateResultAfterAbandonedWaitIsStillDeduped(t *testing.T) {
	r, _ := newTestReconciler(t)

	task := r.Begin("sub.monthly")

	// Caller stops waiting.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := task.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The late result still resolves the attempt; its duplicate is dropped.
	res := successResult("sub.monthly", "purchase-1")
	won, _ := r.Resolve(productKey("sub.monthly"), res, ChannelDirect)
	require.True(t, won)

	won, _ = r.Resolve("", res, ChannelEvent)
	require.False(t, won)
}

func TestReconciler_IndependentAttemptsDoNotInterfere(t *testing.T) {
	r, anomalies := newTestReconciler(t)

	taskA := r.Begin("product.a")
	taskB := r.Begin("product.b")

	resA := successResult("product.a", "purchase-a")
	resB := PaymentResult{Outcome: OutcomeCancelled, ProductID: "product.b", PurchaseID: "purchase-b"}

	won, _ := r.Resolve(productKey("product.a"), resA, ChannelDirect)
	require.True(t, won)
	won, _ = r.Resolve(productKey("product.b"), resB, ChannelDirect)
	require.True(t, won)

	gotA, err := taskA.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, gotA.Outcome)

	gotB, err := taskB.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeCancelled, gotB.Outcome)

	require.Empty(t, *anomalies)
}
