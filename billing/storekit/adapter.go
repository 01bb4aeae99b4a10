package storekit

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/xsoulspace/billing-bridge/billing"
)

// Adapter implements the unified billing surface over the StoreKit client.
type Adapter struct {
	factory ClientFactory

	mu     sync.Mutex
	client Client
	events chan billing.Event

	pumpDone chan struct{}
}

func NewAdapter(factory ClientFactory) *Adapter {
	return &Adapter{factory: factory}
}

func (a *Adapter) Initialize(ctx context.Context, cfg billing.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return billing.NewError(billing.ErrorGeneral, "storekit client already initialized")
	}

	client, err := a.factory()
	if err != nil {
		return billing.AsError(errors.Wrap(err, "creating storekit client"))
	}

	a.client = client
	a.events = make(chan billing.Event, 16)
	a.pumpDone = make(chan struct{})
	go a.pump(client, a.events, a.pumpDone)
	return nil
}

func (a *Adapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	client, events, pumpDone := a.client, a.events, a.pumpDone
	a.client = nil
	a.events = nil
	a.pumpDone = nil
	a.mu.Unlock()

	if client == nil {
		return nil
	}

	client.Close()
	<-pumpDone
	close(events)
	return nil
}

// pump converts the transaction updates stream into domain events. Each
// update is a purchase completing outside an initiating call.
func (a *Adapter) pump(client Client, out chan<- billing.Event, done chan struct{}) {
	defer close(done)

	for tx := range client.Updates() {
		res := successResult(tx)
		out <- billing.Event{Payment: &res}
	}
}

// CheckAvailability always reports available: StoreKit is part of the
// operating system and has no separate availability probe.
func (a *Adapter) CheckAvailability(ctx context.Context) (billing.AvailabilityResult, error) {
	if _, err := a.active(); err != nil {
		return billing.AvailabilityResult{}, err
	}
	return billing.AvailabilityResult{Status: billing.AvailabilityAvailable}, nil
}

func (a *Adapter) IsStoreInstalled(ctx context.Context) (bool, error) {
	if _, err := a.active(); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Adapter) ListProducts(ctx context.Context, productIDs []string) ([]billing.Product, error) {
	client, err := a.active()
	if err != nil {
		return nil, err
	}

	raw, ferr := client.FetchProducts(ctx, productIDs)
	if ferr != nil {
		return nil, billing.AsError(errors.Wrap(ferr, "fetching storekit products"))
	}

	products := make([]billing.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, NormalizeProduct(p))
	}
	return products, nil
}

func (a *Adapter) ListPurchases(ctx context.Context) ([]billing.Purchase, error) {
	client, err := a.active()
	if err != nil {
		return nil, err
	}

	raw, terr := client.AllTransactions(ctx)
	if terr != nil {
		return nil, billing.AsError(errors.Wrap(terr, "listing storekit transactions"))
	}

	purchases := make([]billing.Purchase, 0, len(raw))
	for _, tx := range raw {
		purchases = append(purchases, NormalizeTransaction(tx))
	}
	return purchases, nil
}

func (a *Adapter) Purchase(ctx context.Context, productID string, developerPayload *string) (billing.PaymentResult, error) {
	client, err := a.active()
	if err != nil {
		return billing.PaymentResult{}, err
	}

	raw, perr := client.Purchase(ctx, productID, developerPayload)
	if perr != nil {
		return billing.PaymentResult{}, billing.AsError(errors.Wrap(perr, "storekit purchase"))
	}

	// A pending sheet can race its own approval: the transaction may already
	// be verified by the time the purchase call returns. Prefer it over
	// reporting an unresolved state.
	if raw.State == PurchaseStatePending {
		tx, lerr := client.LatestTransaction(ctx, productID)
		if lerr == nil && tx != nil && !tx.Pending && tx.RevocationDate == nil {
			return successResult(*tx), nil
		}
	}
	return NormalizePurchaseResult(raw), nil
}

// Confirm finishes the transaction. Finishing twice is a no-op at the
// platform, matching the idempotence contract.
func (a *Adapter) Confirm(ctx context.Context, purchaseID string, developerPayload *string) error {
	client, err := a.active()
	if err != nil {
		return err
	}

	if ferr := client.FinishTransaction(ctx, purchaseID); ferr != nil {
		return billing.AsError(errors.Wrap(ferr, "finishing storekit transaction"))
	}
	return nil
}

// Delete is not part of StoreKit's vocabulary; refunds go through the
// platform's own flow.
func (a *Adapter) Delete(ctx context.Context, purchaseID string) error {
	if _, err := a.active(); err != nil {
		return err
	}
	return billing.NewError(billing.ErrorGeneral, "storekit does not support deleting purchases")
}

// SetTheme is accepted and recorded by the service; StoreKit sheets follow
// the system appearance.
func (a *Adapter) SetTheme(ctx context.Context, theme billing.Theme) error {
	_, err := a.active()
	return err
}

// OnResume is a no-op: completed sheets surface on the updates stream
// without a nudge.
func (a *Adapter) OnResume(data string) {}

func (a *Adapter) Events() <-chan billing.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events
}

func (a *Adapter) active() (Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client == nil {
		return nil, billing.ErrNotInitialized
	}
	return a.client, nil
}
