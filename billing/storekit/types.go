// Package storekit adapts Apple's StoreKit platform to the unified billing
// surface. The types here mirror StoreKit's product and transaction
// representations; nothing above the adapter sees them.
package storekit

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeConsumable    ProductType = "Consumable"
	ProductTypeNonConsumable ProductType = "Non-Consumable"
	ProductTypeAutoRenewable ProductType = "Auto-Renewable Subscription"
	ProductTypeNonRenewing   ProductType = "Non-Renewing Subscription"
)

type PeriodUnit string

const (
	PeriodUnitDay   PeriodUnit = "day"
	PeriodUnitWeek  PeriodUnit = "week"
	PeriodUnitMonth PeriodUnit = "month"
	PeriodUnitYear  PeriodUnit = "year"
)

// Period is StoreKit's (unit, value) subscription duration.
type Period struct {
	Unit  PeriodUnit
	Value int
}

type IntroductoryOffer struct {
	Price        *decimal.Decimal
	DisplayPrice string
	Period       *Period
}

type SubscriptionInfo struct {
	SubscriptionPeriod *Period
	IntroductoryOffer  *IntroductoryOffer
}

// Product mirrors a StoreKit product's JSON representation.
type Product struct {
	ID          string
	Type        ProductType
	DisplayName string
	Description string

	// Price is the decimal price in major units; DisplayPrice is the
	// locale-formatted label.
	Price        *decimal.Decimal
	DisplayPrice string
	CurrencyCode string
	Locale       string

	Subscription *SubscriptionInfo
}

// Transaction mirrors a verified StoreKit transaction.
type Transaction struct {
	ID            string
	OriginalID    string
	ProductID     string
	ProductType   ProductType
	PurchaseDate  time.Time
	Quantity      int
	Price         *decimal.Decimal
	CurrencyCode  string
	Environment   string

	// AppAccountToken is the caller-supplied opaque payload; passed through
	// uninterpreted.
	AppAccountToken *string

	RevocationDate *time.Time
	ExpirationDate *time.Time
	Pending        bool
}

type PurchaseResultState string

const (
	PurchaseStateSuccess       PurchaseResultState = "success"
	PurchaseStateUserCancelled PurchaseResultState = "userCancelled"
	PurchaseStatePending       PurchaseResultState = "pending"
)

// PurchaseResult is what a StoreKit purchase call resolves to. Transaction
// is set for the success state only.
type PurchaseResult struct {
	State       PurchaseResultState
	Transaction *Transaction
}
