package billing

import (
	"time"
)

// ProductKind classifies a catalog entry independent of vendor vocabulary.
type ProductKind uint8

const (
	// KindUnrecognized is the explicit mapping target for vendor kinds that
	// have no table entry. It is never used for a kind the vendor did report.
	KindUnrecognized ProductKind = iota
	KindConsumable
	KindNonConsumable
	KindSubscription
)

func (k ProductKind) String() string {
	switch k {
	case KindConsumable:
		return "consumable"
	case KindNonConsumable:
		return "non_consumable"
	case KindSubscription:
		return "subscription"
	default:
		return "unrecognized"
	}
}

// Period is a vendor-granular duration. Fields are copied from the vendor
// as-is; years are never folded into months, nor months into days.
type Period struct {
	Years  int
	Months int
	Days   int
}

// SubscriptionTerms describes the recurring shape of a subscription product.
// Nil periods mean the vendor did not supply one.
type SubscriptionTerms struct {
	SubscriptionPeriod      *Period
	FreeTrialPeriod         *Period
	GracePeriod             *Period
	IntroductoryPrice       *string
	IntroductoryPriceAmount *string
	IntroductoryPricePeriod *Period
}

// Product is one catalog entry. Pointer fields distinguish "vendor omitted
// the field" from "present but empty".
type Product struct {
	ProductID   string
	Kind        ProductKind
	Title       *string
	Description *string

	// Price is in minor currency units.
	Price      *int64
	PriceLabel *string
	Currency   *string
	Language   *string

	Subscription *SubscriptionTerms
}

func (p *Product) Clone() *Product {
	clone := *p
	clone.Title = cloneStr(p.Title)
	clone.Description = cloneStr(p.Description)
	clone.Price = cloneInt64(p.Price)
	clone.PriceLabel = cloneStr(p.PriceLabel)
	clone.Currency = cloneStr(p.Currency)
	clone.Language = cloneStr(p.Language)
	if p.Subscription != nil {
		sub := SubscriptionTerms{
			SubscriptionPeriod:      clonePeriod(p.Subscription.SubscriptionPeriod),
			FreeTrialPeriod:         clonePeriod(p.Subscription.FreeTrialPeriod),
			GracePeriod:             clonePeriod(p.Subscription.GracePeriod),
			IntroductoryPrice:       cloneStr(p.Subscription.IntroductoryPrice),
			IntroductoryPriceAmount: cloneStr(p.Subscription.IntroductoryPriceAmount),
			IntroductoryPricePeriod: clonePeriod(p.Subscription.IntroductoryPricePeriod),
		}
		clone.Subscription = &sub
	}
	return &clone
}

// PurchaseState is the position of a purchase in its lifecycle.
type PurchaseState uint8

const (
	StateUnrecognized PurchaseState = iota
	StateCreated
	StateInvoiceCreated
	StateConfirmed
	StatePaid
	StateConsumed
	StateClosed
	StateCancelled
	StatePaused
	StateTerminated
)

func (s PurchaseState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInvoiceCreated:
		return "invoice_created"
	case StateConfirmed:
		return "confirmed"
	case StatePaid:
		return "paid"
	case StateConsumed:
		return "consumed"
	case StateClosed:
		return "closed"
	case StateCancelled:
		return "cancelled"
	case StatePaused:
		return "paused"
	case StateTerminated:
		return "terminated"
	default:
		return "unrecognized"
	}
}

// Terminal reports whether no further vendor-driven transition is expected.
func (s PurchaseState) Terminal() bool {
	switch s {
	case StateConsumed, StateClosed, StateCancelled, StateTerminated:
		return true
	default:
		return false
	}
}

// AtLeast reports whether s has reached min on the main lifecycle chain
// Created → InvoiceCreated → Confirmed → Paid → Consumed/Closed.
func (s PurchaseState) AtLeast(min PurchaseState) bool {
	return chainRank(s) >= chainRank(min) && chainRank(s) > 0
}

func chainRank(s PurchaseState) int {
	switch s {
	case StateCreated:
		return 1
	case StateInvoiceCreated:
		return 2
	case StateConfirmed:
		return 3
	case StatePaid:
		return 4
	case StateConsumed, StateClosed:
		return 5
	default:
		return 0
	}
}

// Purchase is an ephemeral read projection of one vendor-side purchase. The
// vendor platform is the system of record; nothing here is persisted.
type Purchase struct {
	// PurchaseID may be empty before the vendor has confirmed the purchase.
	PurchaseID string
	ProductID  string
	Kind       ProductKind
	InvoiceID  string
	OrderID    string

	// PurchaseTime is zero if the vendor omitted it.
	PurchaseTime time.Time

	Quantity    int
	Amount      *int64
	AmountLabel *string
	Currency    *string
	Language    *string

	// DeveloperPayload is a caller-supplied opaque string, passed through
	// uninterpreted.
	DeveloperPayload *string

	State PurchaseState
}

func (p *Purchase) Clone() *Purchase {
	clone := *p
	clone.Amount = cloneInt64(p.Amount)
	clone.AmountLabel = cloneStr(p.AmountLabel)
	clone.Currency = cloneStr(p.Currency)
	clone.Language = cloneStr(p.Language)
	clone.DeveloperPayload = cloneStr(p.DeveloperPayload)
	return &clone
}

// PaymentOutcome tags the variant of a PaymentResult.
type PaymentOutcome uint8

const (
	OutcomeUnrecognized PaymentOutcome = iota
	OutcomeSuccess
	OutcomeCancelled
	OutcomeFailure
	OutcomeInvalidState
)

func (o PaymentOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailure:
		return "failure"
	case OutcomeInvalidState:
		return "invalid_state"
	default:
		return "unrecognized"
	}
}

// PaymentResult is the outcome of a single purchase attempt. Exactly one
// outcome is produced per attempt. Identifier fields are populated per
// variant: Success carries all of them, Cancelled usually only PurchaseID,
// InvalidState none.
type PaymentResult struct {
	Outcome    PaymentOutcome
	PurchaseID string
	ProductID  string
	OrderID    string
	InvoiceID  string

	SubscriptionToken *string
	Sandbox           bool

	// ErrorCode is vendor-opaque and only ever what the vendor reported as
	// an error code. Never an identifier reused from another field.
	ErrorCode *string
}

// Availability is the vendor's answer to "can purchases be made right now".
type Availability uint8

const (
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityUnavailable
)

func (a Availability) String() string {
	switch a {
	case AvailabilityAvailable:
		return "available"
	case AvailabilityUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// AvailabilityResult pairs the availability status with its cause for the
// Unavailable and Unknown cases.
type AvailabilityResult struct {
	Status Availability
	Cause  *Error
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func clonePeriod(p *Period) *Period {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
