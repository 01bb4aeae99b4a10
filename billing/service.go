package billing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xsoulspace/billing-bridge/event"
)

// DefaultAttemptWindow bounds how long a resolved purchase attempt is
// remembered for deduplicating late deliveries from the other channel.
const DefaultAttemptWindow = 10 * time.Minute

// Service is the public billing surface. It owns the process-scoped client
// handle: Initialize creates it, Shutdown tears it down, and every other
// operation fails with ErrNotInitialized in between.
//
// Results always resolve to either a success value or exactly one
// taxonomy-tagged *Error. The service never retries on the caller's behalf.
type Service struct {
	log     *zap.Logger
	adapter Adapter

	events    *event.Bus[string, Event]
	anomalies *event.Bus[string, Anomaly]

	mu   sync.RWMutex
	sess *session
}

// session holds the per-initialization state, discarded wholesale when the
// client is re-initialized or shut down.
type session struct {
	cfg   Config
	theme Theme

	tracker    *Tracker
	reconciler *Reconciler
	dispatcher *Dispatcher

	pumpDone chan struct{}
}

func NewService(log *zap.Logger, adapter Adapter) *Service {
	return &Service{
		log:       log,
		adapter:   adapter,
		events:    event.NewBus[string, Event](),
		anomalies: event.NewBus[string, Anomaly](),
	}
}

// AddEventHandler subscribes h to the push-notification channel: payment
// outcomes completed outside an initiating call, and vendor errors not tied
// to one. Handlers run on the dispatcher goroutine, in delivery order.
func (s *Service) AddEventHandler(h event.Handler[string, Event]) {
	s.events.AddHandler(h)
}

// AddAnomalyHandler subscribes h to consistency-anomaly observability
// events.
func (s *Service) AddAnomalyHandler(h event.Handler[string, Anomaly]) {
	s.anomalies.AddHandler(h)
}

// Initialize creates the vendor client from cfg. A second call replaces the
// previous client and configuration wholesale.
func (s *Service) Initialize(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return AsError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil {
		if err := s.teardownLocked(ctx); err != nil {
			return AsError(err)
		}
	}

	if err := s.adapter.Initialize(ctx, cfg); err != nil {
		return AsError(err)
	}

	dispatcher := NewDispatcher(64)
	report := s.reporter(dispatcher)
	sess := &session{
		cfg:        cfg,
		theme:      cfg.Theme,
		tracker:    NewTracker(s.log, report),
		reconciler: NewReconciler(s.log, report, DefaultAttemptWindow),
		dispatcher: dispatcher,
		pumpDone:   make(chan struct{}),
	}
	s.sess = sess

	go s.pump(sess)

	s.log.Debug("billing client initialized",
		zap.String("console_application_id", cfg.ConsoleApplicationID),
		zap.String("theme", cfg.Theme.String()),
	)
	return nil
}

// Shutdown tears the client down. A no-op if not initialized.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return nil
	}
	return s.teardownLocked(ctx)
}

func (s *Service) teardownLocked(ctx context.Context) error {
	sess := s.sess
	s.sess = nil

	err := s.adapter.Shutdown(ctx)

	// The adapter closes its Events channel on shutdown; wait for the pump
	// to drain before stopping the dispatcher.
	<-sess.pumpDone
	sess.dispatcher.Shutdown()

	if err != nil {
		return AsError(err)
	}
	return nil
}

func (s *Service) CheckAvailability(ctx context.Context) (AvailabilityResult, error) {
	_, err := s.session()
	if err != nil {
		return AvailabilityResult{}, err
	}

	res, aerr := s.adapter.CheckAvailability(ctx)
	if aerr != nil {
		return AvailabilityResult{}, AsError(aerr)
	}
	return res, nil
}

func (s *Service) IsStoreInstalled(ctx context.Context) (bool, error) {
	_, err := s.session()
	if err != nil {
		return false, err
	}

	installed, aerr := s.adapter.IsStoreInstalled(ctx)
	if aerr != nil {
		return false, AsError(aerr)
	}
	return installed, nil
}

func (s *Service) GetProducts(ctx context.Context, productIDs []string) ([]Product, error) {
	_, err := s.session()
	if err != nil {
		return nil, err
	}

	products, aerr := s.adapter.ListProducts(ctx, productIDs)
	if aerr != nil {
		return nil, AsError(aerr)
	}

	for _, p := range products {
		if p.ProductID == "" {
			s.log.Warn("vendor returned a product without an identifier")
		}
	}
	return products, nil
}

func (s *Service) GetPurchases(ctx context.Context) ([]Purchase, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}

	purchases, aerr := s.adapter.ListPurchases(ctx)
	if aerr != nil {
		return nil, AsError(aerr)
	}

	for i := range purchases {
		if purchases[i].PurchaseID == "" {
			continue
		}
		purchases[i].State = sess.tracker.Observe(purchases[i].PurchaseID, purchases[i].State)
	}
	return purchases, nil
}

// PurchaseProduct runs one purchase attempt to its terminal outcome. The
// direct vendor response and any event-channel notification for the same
// attempt are reconciled so the caller observes exactly one outcome.
func (s *Service) PurchaseProduct(ctx context.Context, productID string, developerPayload *string) (PaymentResult, error) {
	sess, err := s.session()
	if err != nil {
		return PaymentResult{}, err
	}

	task := sess.reconciler.Begin(productID)

	res, aerr := s.adapter.Purchase(ctx, productID, developerPayload)
	if aerr != nil {
		be := AsError(aerr)
		sess.reconciler.Abort(productID, be)
		return PaymentResult{}, be
	}

	sess.reconciler.Resolve(productKey(productID), res, ChannelDirect)

	outcome, werr := task.Wait(ctx)
	if werr != nil {
		// Stop waiting; a late result is still reconciled and discarded.
		return PaymentResult{}, AsError(werr)
	}

	s.trackOutcome(sess, outcome)
	return outcome, nil
}

// ConfirmPurchase is idempotent: confirming a purchase already in Confirmed
// or a later state succeeds without a vendor call, so a retry after a
// transient failure is indistinguishable from first success.
func (s *Service) ConfirmPurchase(ctx context.Context, purchaseID string, developerPayload *string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}

	if sess.tracker.Confirmed(purchaseID) {
		s.log.Debug("purchase already confirmed", zap.String("purchase_id", purchaseID))
		return nil
	}

	if aerr := s.adapter.Confirm(ctx, purchaseID, developerPayload); aerr != nil {
		return AsError(aerr)
	}

	sess.tracker.Observe(purchaseID, StateConfirmed)
	return nil
}

func (s *Service) DeletePurchase(ctx context.Context, purchaseID string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}

	if aerr := s.adapter.Delete(ctx, purchaseID); aerr != nil {
		return AsError(aerr)
	}

	sess.tracker.Observe(purchaseID, StateTerminated)
	return nil
}

// SetTheme updates the purchase-sheet theme preference.
func (s *Service) SetTheme(ctx context.Context, theme Theme) error {
	sess, err := s.session()
	if err != nil {
		return err
	}

	if aerr := s.adapter.SetTheme(ctx, theme); aerr != nil {
		return AsError(aerr)
	}

	s.mu.Lock()
	sess.theme = theme
	s.mu.Unlock()
	return nil
}

// OnResume forwards a deep-link return to the vendor client after the
// application comes back from an external payment flow.
func (s *Service) OnResume(data string) {
	if _, err := s.session(); err != nil {
		return
	}
	s.adapter.OnResume(data)
}

func (s *Service) session() (*session, *Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess == nil {
		return nil, ErrNotInitialized
	}
	return s.sess, nil
}

// pump moves vendor notifications from the adapter's event channel through
// the reconciler. Outcomes nobody is waiting on are forwarded to the push
// channel; duplicates of already-delivered outcomes are dropped.
func (s *Service) pump(sess *session) {
	defer close(sess.pumpDone)

	for ev := range s.adapter.Events() {
		switch {
		case ev.Payment != nil:
			res := *ev.Payment
			won, toWaiter := sess.reconciler.Resolve("", res, ChannelEvent)
			if !won {
				continue
			}
			s.trackOutcome(sess, res)
			if !toWaiter {
				key := res.ProductID
				if key == "" {
					key = res.PurchaseID
				}
				sess.dispatcher.Dispatch(func() {
					s.events.Post(key, Event{Payment: &res})
				})
			}

		case ev.Err != nil:
			be := ev.Err
			s.log.Warn("vendor error event", zap.Error(be))
			sess.dispatcher.Dispatch(func() {
				s.events.Post("", Event{Err: be})
			})
		}
	}
}

func (s *Service) trackOutcome(sess *session, res PaymentResult) {
	if res.PurchaseID == "" {
		return
	}
	switch res.Outcome {
	case OutcomeSuccess:
		sess.tracker.Observe(res.PurchaseID, StatePaid)
	case OutcomeCancelled:
		sess.tracker.Observe(res.PurchaseID, StateCancelled)
	}
}

// reporter builds the anomaly hook for one session: log it, then surface it
// on the anomaly bus via the session's dispatcher.
func (s *Service) reporter(dispatcher *Dispatcher) AnomalyReporter {
	return func(a Anomaly) {
		s.log.Warn("consistency anomaly",
			zap.String("kind", a.Kind.String()),
			zap.String("key", a.Key),
			zap.String("detail", a.Detail),
		)
		dispatcher.Dispatch(func() {
			s.anomalies.Post(a.Key, a)
		})
	}
}
