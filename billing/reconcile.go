package billing

import (
	"fmt"
	"sync"
	"time"

	"github.com/ReneKroon/ttlcache"
	"go.uber.org/zap"

	"github.com/xsoulspace/billing-bridge/async"
)

// Channel identifies which delivery path an outcome arrived on.
type Channel uint8

const (
	// ChannelDirect is the response to the initiating purchase call.
	ChannelDirect Channel = iota
	// ChannelEvent is the vendor's asynchronous notification channel.
	ChannelEvent
)

func (c Channel) String() string {
	if c == ChannelEvent {
		return "event"
	}
	return "direct"
}

// Reconciler merges the direct-response and event-notification channels for
// a purchase attempt into one delivered-once outcome. The first channel to
// deliver a terminal outcome wins; the duplicate delivery is detected and
// dropped. Resolved outcomes are remembered for a bounded window so that
// late deliveries, including those arriving after the caller stopped
// waiting, are still discarded idempotently.
type Reconciler struct {
	log    *zap.Logger
	report AnomalyReporter

	mu       sync.Mutex
	inflight map[string]*async.Task[PaymentResult]
	resolved *ttlcache.Cache
}

func NewReconciler(log *zap.Logger, report AnomalyReporter, window time.Duration) *Reconciler {
	resolved := ttlcache.NewCache()
	resolved.SetTTL(window)
	return &Reconciler{
		log:      log,
		report:   report,
		inflight: make(map[string]*async.Task[PaymentResult]),
		resolved: resolved,
	}
}

// Begin registers an in-flight purchase attempt for productID and returns
// the task that will carry its winning outcome.
func (r *Reconciler) Begin(productID string) *async.Task[PaymentResult] {
	key := productKey(productID)

	r.mu.Lock()
	defer r.mu.Unlock()

	task := async.NewTask[PaymentResult]()
	r.inflight[key] = task
	return task
}

// Abort fails the in-flight attempt for productID. Used when the initiating
// call errored before the vendor produced any outcome.
func (r *Reconciler) Abort(productID string, err error) {
	key := productKey(productID)

	r.mu.Lock()
	task, ok := r.inflight[key]
	delete(r.inflight, key)
	r.mu.Unlock()

	if ok {
		task.Fail(err)
	}
}

// Resolve feeds one delivered outcome into the reconciler. The primary key
// correlates the delivery with a Begin; identifiers carried by the result
// itself are aliased so the other channel's delivery matches even when it
// carries a different identifier subset.
//
// won reports whether this delivery is the attempt's outcome; toWaiter
// whether an in-flight task consumed it. A delivery with won and !toWaiter
// is an out-of-band completion the caller never asked for directly, and is
// the only kind that belongs on the push channel.
//
// A dropped delivery can still be the first one correlatable with the
// in-flight attempt, when the winner arrived with a smaller identifier
// subset. The waiter is then completed with the outcome that won, so the
// initiating call always resolves.
func (r *Reconciler) Resolve(primaryKey string, res PaymentResult, ch Channel) (won, toWaiter bool) {
	keys := aliasKeys(primaryKey, res)

	r.mu.Lock()

	for _, k := range keys {
		prior, ok := r.resolved.Get(k)
		if !ok {
			continue
		}
		priorRes := prior.(PaymentResult)

		// The winning delivery may have carried an identifier subset that
		// could not be correlated with the in-flight attempt. This delivery
		// can, so the waiter gets the outcome that already won, and the
		// winning result is re-aliased under the fuller key set.
		task := r.takeInflightLocked(keys)
		for _, alias := range keys {
			r.resolved.Set(alias, priorRes)
		}
		r.mu.Unlock()
		if task != nil {
			task.Complete(priorRes)
		}

		if priorRes.Outcome == res.Outcome {
			// The expected duplicate from the other channel. Not an error.
			r.log.Debug("dropping duplicate payment outcome",
				zap.String("key", k),
				zap.String("outcome", res.Outcome.String()),
				zap.String("channel", ch.String()),
			)
			return false, false
		}

		detail := fmt.Sprintf("channels disagree for %s: already delivered %s, %s channel now reports %s",
			k, priorRes.Outcome, ch, res.Outcome)
		r.log.Warn("conflicting payment outcomes",
			zap.String("key", k),
			zap.String("delivered", priorRes.Outcome.String()),
			zap.String("dropped", res.Outcome.String()),
			zap.String("channel", ch.String()),
		)
		if r.report != nil {
			r.report(Anomaly{
				Kind:   AnomalyConflictingOutcomes,
				Key:    k,
				Detail: detail,
			})
		}
		return false, false
	}

	// First arrival wins.
	for _, k := range keys {
		r.resolved.Set(k, res)
	}

	task := r.takeInflightLocked(keys)
	r.mu.Unlock()

	if task != nil {
		task.Complete(res)
		return true, true
	}
	return true, false
}

// takeInflightLocked removes and returns the in-flight task registered under
// any of keys. Caller holds r.mu.
func (r *Reconciler) takeInflightLocked(keys []string) *async.Task[PaymentResult] {
	var task *async.Task[PaymentResult]
	for _, k := range keys {
		if t, ok := r.inflight[k]; ok && task == nil {
			task = t
		}
		delete(r.inflight, k)
	}
	return task
}

func productKey(productID string) string {
	return "product:" + productID
}

func aliasKeys(primary string, res PaymentResult) []string {
	keys := make([]string, 0, 3)
	add := func(k string) {
		for _, existing := range keys {
			if existing == k {
				return
			}
		}
		keys = append(keys, k)
	}

	if primary != "" {
		add(primary)
	}
	if res.ProductID != "" {
		add(productKey(res.ProductID))
	}
	if res.PurchaseID != "" {
		add("purchase:" + res.PurchaseID)
	}
	return keys
}
