package rustore

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/xsoulspace/billing-bridge/billing"
)

// Adapter implements the unified billing surface over the RuStore client.
// All vendor values and vendor errors are normalized here; nothing raw
// crosses the boundary.
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
		return billing.NewError(billing.ErrorGeneral, "rustore client already initialized")
	}

	client, err := a.factory(ClientConfig{
		ConsoleApplicationID: cfg.ConsoleApplicationID,
		DeeplinkScheme:       cfg.DeeplinkScheme,
		DebugLogs:            cfg.DebugLogs,
		Theme:                cfg.Theme,
	})
	if err != nil {
		return normalizeErr(errors.Wrap(err, "creating rustore client"))
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

	// Close drops the vendor callback channel, which ends the pump.
	client.Close()
	<-pumpDone
	close(events)
	return nil
}

// pump converts the vendor's callback stream into domain events.
func (a *Adapter) pump(client Client, out chan<- billing.Event, done chan struct{}) {
	defer close(done)

	for ev := range client.Events() {
		switch {
		case ev.Payment != nil:
			res := NormalizePaymentResult(*ev.Payment)
			out <- billing.Event{Payment: &res}
		case ev.Err != nil:
			out <- billing.Event{Err: NormalizeError(ev.Err)}
		}
	}
}

func (a *Adapter) CheckAvailability(ctx context.Context) (billing.AvailabilityResult, error) {
	client, err := a.active()
	if err != nil {
		return billing.AvailabilityResult{}, err
	}

	raw, werr := client.CheckPurchasesAvailability().Wait(ctx)
	if werr != nil {
		return billing.AvailabilityResult{}, normalizeErr(werr)
	}
	return NormalizeAvailability(raw), nil
}

func (a *Adapter) IsStoreInstalled(ctx context.Context) (bool, error) {
	client, err := a.active()
	if err != nil {
		return false, err
	}

	authorized, werr := client.GetAuthorizationStatus().Wait(ctx)
	if werr != nil {
		var verr *Error
		if errors.As(werr, &verr) && verr.Kind == ErrorKindNotInstalled {
			return false, nil
		}
		return false, normalizeErr(werr)
	}
	return authorized, nil
}

func (a *Adapter) ListProducts(ctx context.Context, productIDs []string) ([]billing.Product, error) {
	client, err := a.active()
	if err != nil {
		return nil, err
	}

	raw, werr := client.GetProducts(productIDs).Wait(ctx)
	if werr != nil {
		return nil, normalizeErr(werr)
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

	raw, werr := client.GetPurchases().Wait(ctx)
	if werr != nil {
		return nil, normalizeErr(werr)
	}

	purchases := make([]billing.Purchase, 0, len(raw))
	for _, p := range raw {
		purchases = append(purchases, NormalizePurchase(p))
	}
	return purchases, nil
}

func (a *Adapter) Purchase(ctx context.Context, productID string, developerPayload *string) (billing.PaymentResult, error) {
	client, err := a.active()
	if err != nil {
		return billing.PaymentResult{}, err
	}

	raw, werr := client.PurchaseProduct(productID, developerPayload).Wait(ctx)
	if werr != nil {
		return billing.PaymentResult{}, normalizeErr(werr)
	}
	return NormalizePaymentResult(raw), nil
}

func (a *Adapter) Confirm(ctx context.Context, purchaseID string, developerPayload *string) error {
	client, err := a.active()
	if err != nil {
		return err
	}

	if _, werr := client.ConfirmPurchase(purchaseID, developerPayload).Wait(ctx); werr != nil {
		return normalizeErr(werr)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, purchaseID string) error {
	client, err := a.active()
	if err != nil {
		return err
	}

	if _, werr := client.DeletePurchase(purchaseID).Wait(ctx); werr != nil {
		return normalizeErr(werr)
	}
	return nil
}

func (a *Adapter) SetTheme(ctx context.Context, theme billing.Theme) error {
	// The vendor SDK reads the theme from its provider at sheet-open time;
	// there is no runtime call to make. Recorded by the service.
	_, err := a.active()
	return err
}

func (a *Adapter) OnResume(data string) {
	client, err := a.active()
	if err != nil {
		return
	}
	client.OnNewIntent(data)
}

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

// normalizeErr converts any vendor error into the unified taxonomy.
func normalizeErr(err error) error {
	var verr *Error
	if errors.As(err, &verr) {
		return NormalizeError(verr)
	}
	return billing.AsError(err)
}
