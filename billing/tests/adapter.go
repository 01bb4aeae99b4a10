// Package tests holds a behavioral conformance suite that every platform
// adapter implementation has to pass.
package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xsoulspace/billing-bridge/billing"
)

// AdapterFactory returns a fresh, uninitialized adapter, the identifier of
// a seeded product whose purchase succeeds, and a teardown.
type AdapterFactory func(t *testing.T) (adapter billing.Adapter, productID string, teardown func())

func RunAdapterConformance(t *testing.T, factory AdapterFactory) {
	for _, tf := range []struct {
		name string
		f    func(t *testing.T, adapter billing.Adapter, productID string)
	}{
		{"NotInitialized", testNotInitialized},
		{"Availability", testAvailability},
		{"Catalog", testCatalog},
		{"PurchaseLifecycle", testPurchaseLifecycle},
	} {
		t.Run(tf.name, func(t *testing.T) {
			adapter, productID, teardown := factory(t)
			defer teardown()
			tf.f(t, adapter, productID)
		})
	}
}

func testConfig() billing.Config {
	return billing.Config{ConsoleApplicationID: "conformance-app"}
}

func testNotInitialized(t *testing.T, adapter billing.Adapter, productID string) {
	ctx := context.Background()

	_, err := adapter.ListProducts(ctx, []string{productID})
	require.Error(t, err)
	require.True(t, billing.IsCode(err, billing.ErrorNotInitialized))

	_, err = adapter.Purchase(ctx, productID, nil)
	require.True(t, billing.IsCode(err, billing.ErrorNotInitialized))

	err = adapter.Confirm(ctx, "some-purchase", nil)
	require.True(t, billing.IsCode(err, billing.ErrorNotInitialized))
}

func testAvailability(t *testing.T, adapter billing.Adapter, productID string) {
	ctx := context.Background()
	require.NoError(t, adapter.Initialize(ctx, testConfig()))
	defer adapter.Shutdown(ctx)

	res, err := adapter.CheckAvailability(ctx)
	require.NoError(t, err)
	if res.Status == billing.AvailabilityUnavailable || res.Status == billing.AvailabilityUnknown {
		require.NotNil(t, res.Cause)
	}

	_, err = adapter.IsStoreInstalled(ctx)
	require.NoError(t, err)
}

func testCatalog(t *testing.T, adapter billing.Adapter, productID string) {
	ctx := context.Background()
	require.NoError(t, adapter.Initialize(ctx, testConfig()))
	defer adapter.Shutdown(ctx)

	products, err := adapter.ListProducts(ctx, []string{productID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, productID, products[0].ProductID)
	require.NotEqual(t, "", products[0].ProductID)
}

func testPurchaseLifecycle(t *testing.T, adapter billing.Adapter, productID string) {
	ctx := context.Background()
	require.NoError(t, adapter.Initialize(ctx, testConfig()))
	defer adapter.Shutdown(ctx)

	res, err := adapter.Purchase(ctx, productID, nil)
	require.NoError(t, err)
	require.Equal(t, billing.OutcomeSuccess, res.Outcome)
	require.Equal(t, productID, res.ProductID)
	require.NotEmpty(t, res.PurchaseID)

	purchases, err := adapter.ListPurchases(ctx)
	require.NoError(t, err)

	var found *billing.Purchase
	for i := range purchases {
		if purchases[i].PurchaseID == res.PurchaseID {
			found = &purchases[i]
			break
		}
	}
	require.NotNil(t, found)
	require.Equal(t, productID, found.ProductID)
	require.True(t, found.State.AtLeast(billing.StatePaid))

	// Confirming twice must both succeed.
	require.NoError(t, adapter.Confirm(ctx, res.PurchaseID, nil))
	require.NoError(t, adapter.Confirm(ctx, res.PurchaseID, nil))
}
