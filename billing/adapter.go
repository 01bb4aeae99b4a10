package billing

import "context"

// Event is one out-of-band notification from a vendor's push channel: a
// payment outcome not tied to an in-flight call, or a vendor error. Exactly
// one of the fields is set.
type Event struct {
	Payment *PaymentResult
	Err     *Error
}

// Adapter is the capability surface one vendor billing platform has to
// provide. Each vendor supplies exactly one implementation; everything above
// this interface is vendor-agnostic and never branches on vendor identity.
//
// Adapters return domain types only. Raw vendor values and vendor error
// types are normalized before they cross this boundary.
type Adapter interface {
	// Initialize creates the vendor client from cfg. Called once per
	// Service initialization; a second call replaces the previous client.
	Initialize(ctx context.Context, cfg Config) error

	// Shutdown tears the vendor client down and closes the Events channel.
	Shutdown(ctx context.Context) error

	CheckAvailability(ctx context.Context) (AvailabilityResult, error)
	IsStoreInstalled(ctx context.Context) (bool, error)

	ListProducts(ctx context.Context, productIDs []string) ([]Product, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)

	// Purchase runs one purchase attempt to a terminal outcome. A non-nil
	// error means the attempt could not produce an outcome at all; a
	// Cancelled or Failure result is not an error.
	Purchase(ctx context.Context, productID string, developerPayload *string) (PaymentResult, error)

	Confirm(ctx context.Context, purchaseID string, developerPayload *string) error
	Delete(ctx context.Context, purchaseID string) error

	SetTheme(ctx context.Context, theme Theme) error

	// OnResume forwards a deep-link return from the vendor's external
	// payment flow. Pending results surface on Events afterwards.
	OnResume(data string)

	// Events is the vendor's asynchronous notification channel. Closed by
	// Shutdown.
	Events() <-chan Event
}
