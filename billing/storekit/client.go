package storekit

import "context"

// Client is the boundary to the StoreKit platform. StoreKit's operations
// are suspend style already, so the interface is context-blocking directly.
// Transaction verification happens inside the platform; only verified
// transactions cross this boundary.
type Client interface {
	FetchProducts(ctx context.Context, productIDs []string) ([]Product, error)

	Purchase(ctx context.Context, productID string, appAccountToken *string) (PurchaseResult, error)

	// LatestTransaction returns the newest verified transaction for a
	// product, or nil when there is none.
	LatestTransaction(ctx context.Context, productID string) (*Transaction, error)

	// AllTransactions returns every verified transaction for the signed-in
	// store account.
	AllTransactions(ctx context.Context) ([]Transaction, error)

	// FinishTransaction acknowledges a transaction. Finishing an already
	// finished transaction is a no-op at the platform.
	FinishTransaction(ctx context.Context, transactionID string) error

	// Updates carries transactions completing outside a purchase call, e.g.
	// a payment sheet approved after the app was backgrounded. Closed by
	// Close.
	Updates() <-chan Transaction

	Close()
}

// ClientFactory creates the StoreKit client at Initialize time.
type ClientFactory func() (Client, error)
