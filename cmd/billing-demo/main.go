package main

import (
	"context"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xsoulspace/billing-bridge/billing"
	"github.com/xsoulspace/billing-bridge/billing/memory"
	"github.com/xsoulspace/billing-bridge/event"
)

type demoConfig struct {
	AppID string `env:"BILLING_APP_ID" envDefault:"42"`
	Debug bool   `env:"BILLING_DEBUG" envDefault:"true"`
}

func main() {
	_ = godotenv.Load()

	var cfg demoConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatal("Failed to parse config:", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	adapter := memory.NewAdapter(
		memory.WithProduct(memory.NewProduct("coins.500", billing.KindConsumable, 9900, "RUB", "ru_RU")),
		memory.WithProduct(memory.NewProduct("premium.unlock", billing.KindNonConsumable, 49900, "RUB", "ru_RU")),
		memory.WithProduct(memory.NewProduct("sub.monthly", billing.KindSubscription, 29900, "RUB", "ru_RU")),
	)

	svc := billing.NewService(logger, adapter)
	svc.AddEventHandler(event.HandlerFunc[string, billing.Event](func(key string, ev billing.Event) {
		if ev.Payment != nil {
			logger.Info("payment event",
				zap.String("key", key),
				zap.String("outcome", ev.Payment.Outcome.String()),
				zap.String("purchase_id", ev.Payment.PurchaseID),
			)
		}
		if ev.Err != nil {
			logger.Warn("billing error event", zap.String("key", key), zap.Error(ev.Err))
		}
	}))
	svc.AddAnomalyHandler(event.HandlerFunc[string, billing.Anomaly](func(key string, a billing.Anomaly) {
		logger.Warn("consistency anomaly",
			zap.String("key", key),
			zap.Stringer("kind", a.Kind),
			zap.String("detail", a.Detail),
		)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Initialize(ctx, billing.Config{
		ConsoleApplicationID: cfg.AppID,
		DeeplinkScheme:       "billingdemo",
		DebugLogs:            cfg.Debug,
	}); err != nil {
		logger.Fatal("initialize failed", zap.Error(err))
	}
	defer svc.Shutdown(context.Background())

	availability, err := svc.CheckAvailability(ctx)
	if err != nil {
		logger.Fatal("availability check failed", zap.Error(err))
	}
	logger.Info("purchases availability", zap.Stringer("status", availability.Status))

	products, err := svc.GetProducts(ctx, []string{"coins.500", "premium.unlock", "sub.monthly"})
	if err != nil {
		logger.Fatal("product fetch failed", zap.Error(err))
	}
	for _, p := range products {
		logger.Info("product",
			zap.String("id", p.ProductID),
			zap.Stringer("kind", p.Kind),
			zap.Stringp("price_label", p.PriceLabel),
		)
	}

	payload := "demo-order-1"
	res, err := svc.PurchaseProduct(ctx, "coins.500", &payload)
	if err != nil {
		logger.Fatal("purchase failed", zap.Error(err))
	}
	logger.Info("purchase finished",
		zap.String("outcome", res.Outcome.String()),
		zap.String("purchase_id", res.PurchaseID),
		zap.String("invoice_id", res.InvoiceID),
	)

	if res.Outcome == billing.OutcomeSuccess {
		if err := svc.ConfirmPurchase(ctx, res.PurchaseID, nil); err != nil {
			logger.Fatal("confirm failed", zap.Error(err))
		}
		logger.Info("purchase confirmed", zap.String("purchase_id", res.PurchaseID))
	}

	purchases, err := svc.GetPurchases(ctx)
	if err != nil {
		logger.Fatal("purchase listing failed", zap.Error(err))
	}
	for _, p := range purchases {
		logger.Info("owned purchase",
			zap.String("purchase_id", p.PurchaseID),
			zap.String("product_id", p.ProductID),
			zap.Stringer("state", p.State),
		)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
