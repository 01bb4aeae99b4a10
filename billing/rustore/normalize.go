package rustore

import (
	"github.com/xsoulspace/billing-bridge/billing"
)

// The functions in this file are the one-way mapping from the vendor
// vocabulary to the unified domain model. They are pure and total: every
// vendor enum case has exactly one table entry, and an unlisted case maps
// to the explicit Unrecognized value, never to a default.

func NormalizeProduct(p Product) billing.Product {
	return billing.Product{
		ProductID:    p.ProductID,
		Kind:         normalizeKind(p.ProductType),
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		PriceLabel:   p.PriceLabel,
		Currency:     p.Currency,
		Language:     p.Language,
		Subscription: normalizeSubscription(p.Subscription),
	}
}

func NormalizePurchase(p Purchase) billing.Purchase {
	out := billing.Purchase{
		PurchaseID:       deref(p.PurchaseID),
		ProductID:        deref(p.ProductID),
		Kind:             normalizeKind(p.ProductType),
		InvoiceID:        deref(p.InvoiceID),
		OrderID:          deref(p.OrderID),
		Quantity:         1,
		Amount:           p.Amount,
		AmountLabel:      p.AmountLabel,
		Currency:         p.Currency,
		Language:         p.Language,
		DeveloperPayload: p.DeveloperPayload,
		State:            normalizeState(p.PurchaseState),
	}
	if p.PurchaseTime != nil {
		out.PurchaseTime = *p.PurchaseTime
	}
	if p.Quantity != nil && *p.Quantity > 0 {
		out.Quantity = *p.Quantity
	}
	return out
}

func NormalizePaymentResult(r PaymentResult) billing.PaymentResult {
	out := billing.PaymentResult{
		PurchaseID:        deref(r.PurchaseID),
		ProductID:         deref(r.ProductID),
		OrderID:           deref(r.OrderID),
		InvoiceID:         deref(r.InvoiceID),
		SubscriptionToken: r.SubscriptionToken,
		Sandbox:           r.Sandbox,
		ErrorCode:         r.ErrorCode,
	}
	switch r.Type {
	case PaymentResultSuccess:
		out.Outcome = billing.OutcomeSuccess
	case PaymentResultCancelled:
		out.Outcome = billing.OutcomeCancelled
	case PaymentResultFailure:
		out.Outcome = billing.OutcomeFailure
	case PaymentResultInvalidPaymentState:
		out.Outcome = billing.OutcomeInvalidState
	default:
		out.Outcome = billing.OutcomeUnrecognized
	}
	return out
}

func NormalizeError(e *Error) *billing.Error {
	if e == nil {
		return nil
	}
	out := &billing.Error{
		Message:    e.Message,
		VendorCode: e.Code,
	}
	switch e.Kind {
	case ErrorKindNotInstalled:
		out.Code = billing.ErrorNotInstalled
	case ErrorKindOutdated:
		out.Code = billing.ErrorOutdated
	case ErrorKindUserUnauthorized:
		out.Code = billing.ErrorUserUnauthorized
	case ErrorKindRequestLimit:
		out.Code = billing.ErrorRequestLimitReached
	case ErrorKindReviewAlreadyExists:
		out.Code = billing.ErrorReviewAlreadyExists
	case ErrorKindInvalidReviewInfo:
		out.Code = billing.ErrorInvalidReviewInfo
	default:
		out.Code = billing.ErrorGeneral
	}
	return out
}

func NormalizeAvailability(a AvailabilityResult) billing.AvailabilityResult {
	out := billing.AvailabilityResult{Cause: NormalizeError(a.Cause)}
	switch a.Type {
	case AvailabilityAvailable:
		out.Status = billing.AvailabilityAvailable
	case AvailabilityUnavailable:
		out.Status = billing.AvailabilityUnavailable
	default:
		out.Status = billing.AvailabilityUnknown
	}
	return out
}

func normalizeKind(t *ProductType) billing.ProductKind {
	if t == nil {
		return billing.KindUnrecognized
	}
	switch *t {
	case ProductTypeConsumable:
		return billing.KindConsumable
	case ProductTypeNonConsumable:
		return billing.KindNonConsumable
	case ProductTypeSubscription:
		return billing.KindSubscription
	default:
		return billing.KindUnrecognized
	}
}

func normalizeState(s *PurchaseState) billing.PurchaseState {
	if s == nil {
		return billing.StateUnrecognized
	}
	switch *s {
	case PurchaseStateCreated:
		return billing.StateCreated
	case PurchaseStateInvoiceCreated:
		return billing.StateInvoiceCreated
	case PurchaseStateConfirmed:
		return billing.StateConfirmed
	case PurchaseStatePaid:
		return billing.StatePaid
	case PurchaseStateCancelled:
		return billing.StateCancelled
	case PurchaseStateConsumed:
		return billing.StateConsumed
	case PurchaseStateClosed:
		return billing.StateClosed
	case PurchaseStatePaused:
		return billing.StatePaused
	case PurchaseStateTerminated:
		return billing.StateTerminated
	default:
		return billing.StateUnrecognized
	}
}

func normalizeSubscription(s *ProductSubscription) *billing.SubscriptionTerms {
	if s == nil {
		return nil
	}
	return &billing.SubscriptionTerms{
		SubscriptionPeriod:      normalizePeriod(s.SubscriptionPeriod),
		FreeTrialPeriod:         normalizePeriod(s.FreeTrialPeriod),
		GracePeriod:             normalizePeriod(s.GracePeriod),
		IntroductoryPrice:       s.IntroductoryPrice,
		IntroductoryPriceAmount: s.IntroductoryPriceAmount,
		IntroductoryPricePeriod: normalizePeriod(s.IntroductoryPricePeriod),
	}
}

// normalizePeriod copies the vendor period field-for-field. No unit
// arithmetic: the domain model keeps the vendor's granularity.
func normalizePeriod(p *SubscriptionPeriod) *billing.Period {
	if p == nil {
		return nil
	}
	return &billing.Period{
		Years:  p.Years,
		Months: p.Months,
		Days:   p.Days,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
