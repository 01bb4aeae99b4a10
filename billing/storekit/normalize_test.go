package storekit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xsoulspace/billing-bridge/billing"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNormalizeKind_Exhaustive(t *testing.T) {
	cases := map[ProductType]billing.ProductKind{
		ProductTypeConsumable:    billing.KindConsumable,
		ProductTypeNonConsumable: billing.KindNonConsumable,
		ProductTypeAutoRenewable: billing.KindSubscription,
		ProductTypeNonRenewing:   billing.KindSubscription,
	}
	for vendor, want := range cases {
		require.Equal(t, want, normalizeKind(vendor), "vendor kind %s", vendor)
	}

	require.Equal(t, billing.KindUnrecognized, normalizeKind(ProductType("Bundle")))
	require.Equal(t, billing.KindUnrecognized, normalizeKind(ProductType("")))
}

func TestNormalizeProduct(t *testing.T) {
	got := NormalizeProduct(Product{
		ID:           "sub.monthly",
		Type:         ProductTypeAutoRenewable,
		DisplayName:  "Monthly",
		Description:  "Monthly subscription",
		Price:        decPtr("4.99"),
		DisplayPrice: "$4.99",
		CurrencyCode: "USD",
		Locale:       "en_US",
		Subscription: &SubscriptionInfo{
			SubscriptionPeriod: &Period{Unit: PeriodUnitMonth, Value: 1},
		},
	})

	require.Equal(t, "sub.monthly", got.ProductID)
	require.Equal(t, billing.KindSubscription, got.Kind)
	require.Equal(t, "Monthly", *got.Title)
	require.Equal(t, "$4.99", *got.PriceLabel)
	require.Equal(t, "USD", *got.Currency)
	require.NotNil(t, got.Price)
	require.EqualValues(t, 499, *got.Price)
	require.Equal(t, &billing.Period{Months: 1}, got.Subscription.SubscriptionPeriod)
}

func TestNormalizeProduct_UnknownCurrencyLeavesPriceUnset(t *testing.T) {
	got := NormalizeProduct(Product{
		ID:           "odd",
		Type:         ProductTypeConsumable,
		Price:        decPtr("10"),
		CurrencyCode: "NOPE",
	})
	require.Nil(t, got.Price)
}

func TestNormalizePeriod_UnitGranularityPreserved(t *testing.T) {
	cases := []struct {
		in   Period
		want billing.Period
	}{
		{Period{Unit: PeriodUnitYear, Value: 1}, billing.Period{Years: 1}},
		{Period{Unit: PeriodUnitMonth, Value: 12}, billing.Period{Months: 12}},
		{Period{Unit: PeriodUnitWeek, Value: 2}, billing.Period{Days: 14}},
		{Period{Unit: PeriodUnitDay, Value: 30}, billing.Period{Days: 30}},
	}
	for _, tc := range cases {
		in := tc.in
		require.Equal(t, &tc.want, normalizePeriod(&in), "unit %s", tc.in.Unit)
	}
	require.Nil(t, normalizePeriod(nil))
}

func TestNormalizeTransaction_States(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	paid := NormalizeTransaction(Transaction{
		ID:           "1000",
		ProductID:    "sub.monthly",
		ProductType:  ProductTypeAutoRenewable,
		PurchaseDate: now,
		Quantity:     1,
		Price:        decPtr("4.99"),
		CurrencyCode: "USD",
		Environment:  "Production",
		ExpirationDate: &future,
	})
	require.Equal(t, billing.StatePaid, paid.State)
	require.Equal(t, "1000", paid.PurchaseID)
	require.EqualValues(t, 499, *paid.Amount)

	revoked := NormalizeTransaction(Transaction{ID: "1001", RevocationDate: &now})
	require.Equal(t, billing.StateTerminated, revoked.State)

	pending := NormalizeTransaction(Transaction{ID: "1002", Pending: true})
	require.Equal(t, billing.StateCreated, pending.State)

	expired := NormalizeTransaction(Transaction{ID: "1003", ExpirationDate: &past})
	require.Equal(t, billing.StateClosed, expired.State)
}

func TestNormalizeTransaction_PayloadPassthrough(t *testing.T) {
	token := "caller-opaque-token"
	got := NormalizeTransaction(Transaction{ID: "1", AppAccountToken: &token})
	require.Equal(t, token, *got.DeveloperPayload)

	bare := NormalizeTransaction(Transaction{ID: "2"})
	require.Nil(t, bare.DeveloperPayload)
	require.Equal(t, 1, bare.Quantity)
}

func TestNormalizePurchaseResult(t *testing.T) {
	tx := Transaction{
		ID:          "1000",
		OriginalID:  "900",
		ProductID:   "sub.monthly",
		Environment: "Sandbox",
	}

	success := NormalizePurchaseResult(PurchaseResult{State: PurchaseStateSuccess, Transaction: &tx})
	require.Equal(t, billing.OutcomeSuccess, success.Outcome)
	require.Equal(t, "1000", success.PurchaseID)
	require.Equal(t, "900", success.OrderID)
	require.True(t, success.Sandbox)

	cancelled := NormalizePurchaseResult(PurchaseResult{State: PurchaseStateUserCancelled})
	require.Equal(t, billing.OutcomeCancelled, cancelled.Outcome)

	pending := NormalizePurchaseResult(PurchaseResult{State: PurchaseStatePending})
	require.Equal(t, billing.OutcomeInvalidState, pending.Outcome)

	// Success without a transaction cannot happen per the platform
	// contract, but must not map to a success if it does.
	broken := NormalizePurchaseResult(PurchaseResult{State: PurchaseStateSuccess})
	require.Equal(t, billing.OutcomeInvalidState, broken.Outcome)

	novel := NormalizePurchaseResult(PurchaseResult{State: PurchaseResultState("deferred")})
	require.Equal(t, billing.OutcomeUnrecognized, novel.Outcome)
}
