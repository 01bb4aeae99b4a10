// Package rustore adapts the RuStore billing platform to the unified
// billing surface. The types in this file mirror the vendor SDK's wire
// vocabulary; nothing above the adapter sees them.
package rustore

import "time"

type ProductType string

const (
	ProductTypeConsumable    ProductType = "CONSUMABLE"
	ProductTypeNonConsumable ProductType = "NON_CONSUMABLE"
	ProductTypeSubscription  ProductType = "SUBSCRIPTION"
)

// SubscriptionPeriod is the vendor's {years, months, days} duration.
type SubscriptionPeriod struct {
	Years  int
	Months int
	Days   int
}

type ProductSubscription struct {
	SubscriptionPeriod      *SubscriptionPeriod
	FreeTrialPeriod         *SubscriptionPeriod
	GracePeriod             *SubscriptionPeriod
	IntroductoryPrice       *string
	IntroductoryPriceAmount *string
	IntroductoryPricePeriod *SubscriptionPeriod
}

// Product is the vendor catalog entry. The vendor omits fields
// inconsistently; pointers mark the optional ones.
type Product struct {
	ProductID    string
	ProductType  *ProductType
	Title        *string
	Description  *string
	Price        *int64
	PriceLabel   *string
	Currency     *string
	Language     *string
	Subscription *ProductSubscription
}

type PurchaseState string

const (
	PurchaseStateCreated        PurchaseState = "CREATED"
	PurchaseStateInvoiceCreated PurchaseState = "INVOICE_CREATED"
	PurchaseStateConfirmed      PurchaseState = "CONFIRMED"
	PurchaseStatePaid           PurchaseState = "PAID"
	PurchaseStateCancelled      PurchaseState = "CANCELLED"
	PurchaseStateConsumed       PurchaseState = "CONSUMED"
	PurchaseStateClosed         PurchaseState = "CLOSED"
	PurchaseStatePaused         PurchaseState = "PAUSED"
	PurchaseStateTerminated     PurchaseState = "TERMINATED"
)

type Purchase struct {
	PurchaseID       *string
	ProductID        *string
	ProductType      *ProductType
	InvoiceID        *string
	OrderID          *string
	Language         *string
	PurchaseTime     *time.Time
	AmountLabel      *string
	Amount           *int64
	Currency         *string
	Quantity         *int
	PurchaseState    *PurchaseState
	DeveloperPayload *string
}

type PaymentResultType string

const (
	PaymentResultSuccess             PaymentResultType = "SUCCESS"
	PaymentResultCancelled           PaymentResultType = "CANCELLED"
	PaymentResultFailure             PaymentResultType = "FAILURE"
	PaymentResultInvalidPaymentState PaymentResultType = "INVALID_PAYMENT_STATE"
)

// PaymentResult is the flattened vendor payment outcome.
type PaymentResult struct {
	Type              PaymentResultType
	PurchaseID        *string
	ProductID         *string
	OrderID           *string
	InvoiceID         *string
	SubscriptionToken *string
	Sandbox           bool

	// ErrorCode is the vendor's error code for FAILURE results, when the
	// vendor supplied one.
	ErrorCode *string
}

type AvailabilityType string

const (
	AvailabilityAvailable   AvailabilityType = "AVAILABLE"
	AvailabilityUnavailable AvailabilityType = "UNAVAILABLE"
	AvailabilityUnknown     AvailabilityType = "UNKNOWN"
)

type AvailabilityResult struct {
	Type  AvailabilityType
	Cause *Error
}

// ErrorKind mirrors the vendor SDK's exception hierarchy.
type ErrorKind string

const (
	ErrorKindNotInstalled        ErrorKind = "NOT_INSTALLED"
	ErrorKindOutdated            ErrorKind = "OUTDATED"
	ErrorKindUserUnauthorized    ErrorKind = "USER_UNAUTHORIZED"
	ErrorKindRequestLimit        ErrorKind = "REQUEST_LIMIT_REACHED"
	ErrorKindReviewAlreadyExists ErrorKind = "REVIEW_ALREADY_EXISTS"
	ErrorKindInvalidReviewInfo   ErrorKind = "INVALID_REVIEW_INFO"
	ErrorKindGeneral             ErrorKind = "GENERAL"
)

// Error is a raw vendor error.
type Error struct {
	Kind    ErrorKind
	Code    *string
	Message string
}

func (e *Error) Error() string {
	return "rustore: " + string(e.Kind) + ": " + e.Message
}

// ClientEvent is one notification from the vendor's asynchronous callback
// channel. Exactly one field is set.
type ClientEvent struct {
	Payment *PaymentResult
	Err     *Error
}
