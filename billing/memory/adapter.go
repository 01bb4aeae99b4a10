// Package memory is an in-memory vendor used in tests and local wiring. It
// implements the full adapter surface with scriptable outcomes, including
// the double delivery real vendors produce (direct response plus event
// notification for the same attempt).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/xsoulspace/billing-bridge/billing"
)

type Adapter struct {
	mu sync.Mutex

	initialized bool
	theme       billing.Theme
	events      chan billing.Event

	catalog   map[string]*billing.Product
	purchases map[string]*billing.Purchase

	scripted        map[string]billing.PaymentOutcome
	pending         []billing.Event
	duplicateEvents bool
	availability    billing.AvailabilityResult
	installed       bool
}

type Option func(*Adapter)

// WithProduct seeds a catalog entry.
func WithProduct(p billing.Product) Option {
	return func(a *Adapter) {
		a.catalog[p.ProductID] = p.Clone()
	}
}

// WithScriptedOutcome makes the next purchases of productID resolve to the
// given outcome instead of success.
func WithScriptedOutcome(productID string, outcome billing.PaymentOutcome) Option {
	return func(a *Adapter) {
		a.scripted[productID] = outcome
	}
}

// WithDuplicateEvents makes every direct purchase result also fire on the
// event channel, the way vendors deliver after a native payment sheet.
func WithDuplicateEvents() Option {
	return func(a *Adapter) {
		a.duplicateEvents = true
	}
}

func WithAvailability(res billing.AvailabilityResult) Option {
	return func(a *Adapter) {
		a.availability = res
	}
}

func WithStoreInstalled(installed bool) Option {
	return func(a *Adapter) {
		a.installed = installed
	}
}

func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		catalog:      make(map[string]*billing.Product),
		purchases:    make(map[string]*billing.Purchase),
		scripted:     make(map[string]billing.PaymentOutcome),
		availability: billing.AvailabilityResult{Status: billing.AvailabilityAvailable},
		installed:    true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewProduct builds a catalog entry with a formatted price label for the
// given currency and locale. Subscriptions get monthly terms by default.
func NewProduct(productID string, kind billing.ProductKind, price int64, currencyCode, locale string) billing.Product {
	title := productID
	label := priceLabel(price, currencyCode)
	lang := language.Make(locale).String()

	p := billing.Product{
		ProductID:  productID,
		Kind:       kind,
		Title:      &title,
		Price:      &price,
		PriceLabel: &label,
		Currency:   &currencyCode,
		Language:   &lang,
	}
	if kind == billing.KindSubscription {
		p.Subscription = &billing.SubscriptionTerms{
			SubscriptionPeriod: &billing.Period{Months: 1},
		}
	}
	return p
}

func (a *Adapter) Initialize(ctx context.Context, cfg billing.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return billing.NewError(billing.ErrorGeneral, "memory vendor already initialized")
	}
	a.initialized = true
	a.theme = cfg.Theme
	a.events = make(chan billing.Event, 16)
	return nil
}

func (a *Adapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return nil
	}
	a.initialized = false
	close(a.events)
	return nil
}

func (a *Adapter) CheckAvailability(ctx context.Context) (billing.AvailabilityResult, error) {
	if err := a.guard(); err != nil {
		return billing.AvailabilityResult{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.availability, nil
}

func (a *Adapter) IsStoreInstalled(ctx context.Context) (bool, error) {
	if err := a.guard(); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.installed, nil
}

func (a *Adapter) ListProducts(ctx context.Context, productIDs []string) ([]billing.Product, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	products := make([]billing.Product, 0, len(productIDs))
	for _, id := range productIDs {
		if p, ok := a.catalog[id]; ok {
			products = append(products, *p.Clone())
		}
	}
	return products, nil
}

func (a *Adapter) ListPurchases(ctx context.Context) ([]billing.Purchase, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	purchases := make([]billing.Purchase, 0, len(a.purchases))
	for _, p := range a.purchases {
		purchases = append(purchases, *p.Clone())
	}
	return purchases, nil
}

func (a *Adapter) Purchase(ctx context.Context, productID string, developerPayload *string) (billing.PaymentResult, error) {
	if err := a.guard(); err != nil {
		return billing.PaymentResult{}, err
	}

	a.mu.Lock()

	product, ok := a.catalog[productID]
	if !ok {
		a.mu.Unlock()
		code := "PRODUCT_NOT_FOUND"
		return billing.PaymentResult{
			Outcome:   billing.OutcomeFailure,
			ProductID: productID,
			ErrorCode: &code,
		}, nil
	}

	var res billing.PaymentResult
	switch a.scripted[productID] {
	case billing.OutcomeCancelled:
		res = billing.PaymentResult{
			Outcome:    billing.OutcomeCancelled,
			PurchaseID: uuid.NewString(),
			Sandbox:    true,
		}
	case billing.OutcomeFailure:
		code := "PAYMENT_DECLINED"
		res = billing.PaymentResult{
			Outcome:    billing.OutcomeFailure,
			PurchaseID: uuid.NewString(),
			ProductID:  productID,
			Sandbox:    true,
			ErrorCode:  &code,
		}
	case billing.OutcomeInvalidState:
		res = billing.PaymentResult{Outcome: billing.OutcomeInvalidState}
	default:
		res = a.completePurchase(product, developerPayload)
	}

	duplicate := a.duplicateEvents
	events := a.events
	a.mu.Unlock()

	if duplicate {
		dup := res
		events <- billing.Event{Payment: &dup}
	}
	return res, nil
}

// completePurchase walks the purchase through the vendor lifecycle and
// records it as paid. Caller holds the lock.
func (a *Adapter) completePurchase(product *billing.Product, developerPayload *string) billing.PaymentResult {
	purchase := &billing.Purchase{
		PurchaseID:       uuid.NewString(),
		ProductID:        product.ProductID,
		Kind:             product.Kind,
		InvoiceID:        uuid.NewString(),
		OrderID:          uuid.NewString(),
		PurchaseTime:     time.Now(),
		Quantity:         1,
		Amount:           product.Price,
		AmountLabel:      product.PriceLabel,
		Currency:         product.Currency,
		Language:         product.Language,
		DeveloperPayload: developerPayload,
		State:            billing.StatePaid,
	}
	a.purchases[purchase.PurchaseID] = purchase

	res := billing.PaymentResult{
		Outcome:    billing.OutcomeSuccess,
		PurchaseID: purchase.PurchaseID,
		ProductID:  purchase.ProductID,
		OrderID:    purchase.OrderID,
		InvoiceID:  purchase.InvoiceID,
		Sandbox:    true,
	}
	if product.Kind == billing.KindSubscription {
		token := uuid.NewString()
		res.SubscriptionToken = &token
	}
	return res
}

func (a *Adapter) Confirm(ctx context.Context, purchaseID string, developerPayload *string) error {
	if err := a.guard(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	purchase, ok := a.purchases[purchaseID]
	if !ok {
		return billing.Errorf(billing.ErrorGeneral, "purchase %s not found", purchaseID)
	}

	// Confirming an already confirmed or consumed purchase is a no-op.
	switch purchase.State {
	case billing.StatePaid:
		if purchase.Kind == billing.KindConsumable {
			purchase.State = billing.StateConsumed
		}
	case billing.StateCreated, billing.StateInvoiceCreated:
		purchase.State = billing.StateConfirmed
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, purchaseID string) error {
	if err := a.guard(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	purchase, ok := a.purchases[purchaseID]
	if !ok {
		return billing.Errorf(billing.ErrorGeneral, "purchase %s not found", purchaseID)
	}
	purchase.State = billing.StateTerminated
	return nil
}

func (a *Adapter) SetTheme(ctx context.Context, theme billing.Theme) error {
	if err := a.guard(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.theme = theme
	return nil
}

// OnResume flushes events queued behind the vendor's external payment flow.
func (a *Adapter) OnResume(data string) {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	events := a.events
	initialized := a.initialized
	a.mu.Unlock()

	if !initialized {
		return
	}
	for _, ev := range pending {
		events <- ev
	}
}

func (a *Adapter) Events() <-chan billing.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events
}

// EmitOutOfBandSuccess completes a purchase of productID with no initiating
// call, delivering it on the event channel only.
func (a *Adapter) EmitOutOfBandSuccess(productID string) billing.PaymentResult {
	a.mu.Lock()

	product, ok := a.catalog[productID]
	if !ok {
		a.mu.Unlock()
		return billing.PaymentResult{Outcome: billing.OutcomeInvalidState}
	}
	res := a.completePurchase(product, nil)
	events := a.events
	a.mu.Unlock()

	events <- billing.Event{Payment: &res}
	return res
}

// QueueOnResume holds ev back until the next OnResume call.
func (a *Adapter) QueueOnResume(ev billing.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, ev)
}

// EmitEvent pushes an arbitrary event, for exercising conflicting and
// duplicate deliveries.
func (a *Adapter) EmitEvent(ev billing.Event) {
	a.mu.Lock()
	events := a.events
	a.mu.Unlock()
	events <- ev
}

func (a *Adapter) guard() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return billing.ErrNotInitialized
	}
	return nil
}

func priceLabel(amount int64, currencyCode string) string {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return ""
	}
	scale, _ := currency.Standard.Rounding(unit)
	return decimal.New(amount, -int32(scale)).StringFixed(int32(scale)) + " " + unit.String()
}
