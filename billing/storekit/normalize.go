package storekit

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/xsoulspace/billing-bridge/billing"
)

// One-way mapping from StoreKit vocabulary to the unified domain model.
// Pure and total: unlisted vendor cases map to the explicit Unrecognized
// value, never to a default.

func NormalizeProduct(p Product) billing.Product {
	out := billing.Product{
		ProductID:    p.ID,
		Kind:         normalizeKind(p.Type),
		Subscription: normalizeSubscription(p.Subscription),
	}

	// StoreKit always carries display name and description (possibly
	// empty), so they are present, not unset.
	name, desc := p.DisplayName, p.Description
	out.Title = &name
	out.Description = &desc

	if p.DisplayPrice != "" {
		label := p.DisplayPrice
		out.PriceLabel = &label
	}
	if p.CurrencyCode != "" {
		code := p.CurrencyCode
		out.Currency = &code
	}
	if p.Locale != "" {
		locale := p.Locale
		out.Language = &locale
	}
	out.Price = minorUnits(p.Price, p.CurrencyCode)
	return out
}

// NormalizeTransaction projects a verified transaction onto the unified
// purchase shape.
func NormalizeTransaction(t Transaction) billing.Purchase {
	out := billing.Purchase{
		PurchaseID:       t.ID,
		ProductID:        t.ProductID,
		Kind:             normalizeKind(t.ProductType),
		OrderID:          t.OriginalID,
		PurchaseTime:     t.PurchaseDate,
		Quantity:         1,
		Amount:           minorUnits(t.Price, t.CurrencyCode),
		DeveloperPayload: t.AppAccountToken,
		State:            transactionState(t),
	}
	if t.Quantity > 0 {
		out.Quantity = t.Quantity
	}
	if t.CurrencyCode != "" {
		code := t.CurrencyCode
		out.Currency = &code
	}
	return out
}

func NormalizePurchaseResult(r PurchaseResult) billing.PaymentResult {
	switch r.State {
	case PurchaseStateSuccess:
		if r.Transaction == nil {
			return billing.PaymentResult{Outcome: billing.OutcomeInvalidState}
		}
		return successResult(*r.Transaction)
	case PurchaseStateUserCancelled:
		return billing.PaymentResult{Outcome: billing.OutcomeCancelled}
	case PurchaseStatePending:
		// The sheet is still open or awaiting approval; the outcome will
		// arrive on the updates channel.
		return billing.PaymentResult{Outcome: billing.OutcomeInvalidState}
	default:
		return billing.PaymentResult{Outcome: billing.OutcomeUnrecognized}
	}
}

func successResult(t Transaction) billing.PaymentResult {
	return billing.PaymentResult{
		Outcome:    billing.OutcomeSuccess,
		PurchaseID: t.ID,
		ProductID:  t.ProductID,
		OrderID:    t.OriginalID,
		Sandbox:    t.Environment != "Production",
	}
}

func normalizeKind(t ProductType) billing.ProductKind {
	switch t {
	case ProductTypeConsumable:
		return billing.KindConsumable
	case ProductTypeNonConsumable:
		return billing.KindNonConsumable
	case ProductTypeAutoRenewable, ProductTypeNonRenewing:
		return billing.KindSubscription
	default:
		return billing.KindUnrecognized
	}
}

func transactionState(t Transaction) billing.PurchaseState {
	switch {
	case t.RevocationDate != nil:
		return billing.StateTerminated
	case t.Pending:
		return billing.StateCreated
	case t.ExpirationDate != nil && t.ExpirationDate.Before(time.Now()):
		return billing.StateClosed
	default:
		return billing.StatePaid
	}
}

func normalizeSubscription(s *SubscriptionInfo) *billing.SubscriptionTerms {
	if s == nil {
		return nil
	}
	out := &billing.SubscriptionTerms{
		SubscriptionPeriod: normalizePeriod(s.SubscriptionPeriod),
	}
	if offer := s.IntroductoryOffer; offer != nil {
		if offer.DisplayPrice != "" {
			label := offer.DisplayPrice
			out.IntroductoryPrice = &label
		}
		if offer.Price != nil {
			amount := offer.Price.String()
			out.IntroductoryPriceAmount = &amount
		}
		out.IntroductoryPricePeriod = normalizePeriod(offer.Period)
	}
	return out
}

// normalizePeriod maps StoreKit's (unit, value) onto {years, months, days}.
// Each unit lands in its own field; a week unit has no field of its own and
// lands in days. No other unit conversion happens.
func normalizePeriod(p *Period) *billing.Period {
	if p == nil {
		return nil
	}
	switch p.Unit {
	case PeriodUnitYear:
		return &billing.Period{Years: p.Value}
	case PeriodUnitMonth:
		return &billing.Period{Months: p.Value}
	case PeriodUnitWeek:
		return &billing.Period{Days: 7 * p.Value}
	case PeriodUnitDay:
		return &billing.Period{Days: p.Value}
	default:
		return &billing.Period{}
	}
}

// minorUnits converts StoreKit's major-unit decimal price to the domain's
// minor-unit integer, using the currency's scale. An unknown currency code
// leaves the price unset rather than guessing a scale.
func minorUnits(price *decimal.Decimal, currencyCode string) *int64 {
	if price == nil {
		return nil
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil
	}
	scale, _ := currency.Standard.Rounding(unit)
	minor := price.Shift(int32(scale)).Round(0).IntPart()
	return &minor
}
