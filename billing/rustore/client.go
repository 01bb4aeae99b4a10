package rustore

import (
	"github.com/xsoulspace/billing-bridge/async"
	"github.com/xsoulspace/billing-bridge/billing"
)

// ClientConfig is what the vendor SDK needs to construct its client.
type ClientConfig struct {
	ConsoleApplicationID string
	DeeplinkScheme       string
	DebugLogs            bool
	Theme                billing.Theme
}

// Client is the boundary to the vendor billing SDK. The SDK's operations
// are listener-pair style (success/failure callbacks); implementations
// surface each call as a Task the adapter awaits.
//
// The SDK itself is a vendor black box; this interface is the whole of what
// the adapter assumes about it.
type Client interface {
	CheckPurchasesAvailability() *async.Task[AvailabilityResult]

	// GetAuthorizationStatus reports whether the store user is authorized;
	// it doubles as the store-installed probe.
	GetAuthorizationStatus() *async.Task[bool]

	GetProducts(productIDs []string) *async.Task[[]Product]
	GetPurchases() *async.Task[[]Purchase]

	PurchaseProduct(productID string, developerPayload *string) *async.Task[PaymentResult]
	ConfirmPurchase(purchaseID string, developerPayload *string) *async.Task[struct{}]
	DeletePurchase(purchaseID string) *async.Task[struct{}]

	// OnNewIntent forwards deep-link intent data after the application
	// resumes from an external payment flow.
	OnNewIntent(data string)

	// Events carries payment results and errors the SDK fires outside any
	// initiating call. Closed by Close.
	Events() <-chan ClientEvent

	Close()
}

// ClientFactory creates the vendor client at Initialize time.
type ClientFactory func(cfg ClientConfig) (Client, error)
