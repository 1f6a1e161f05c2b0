package main

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/billingkit/adapter/cli"
	"github.com/felixgeelhaar/billingkit/internal/billing/application"
	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/felixgeelhaar/billingkit/internal/billing/infrastructure/crypto"
	"github.com/felixgeelhaar/billingkit/internal/billing/infrastructure/eventbus"
	"github.com/felixgeelhaar/billingkit/internal/billing/infrastructure/fakeprovider"
	"github.com/felixgeelhaar/billingkit/internal/billing/infrastructure/resilience"
	"github.com/felixgeelhaar/billingkit/pkg/config"
	"github.com/felixgeelhaar/billingkit/pkg/observability"
)

// demoCatalog seeds the local-mode provider.
var demoCatalog = []domain.CatalogEntry{
	{ProductID: "coins_100", Title: "100 Coins", Description: "A pouch of coins", Price: "$0.99", Kind: domain.ProductOneTime},
	{ProductID: "coins_500", Title: "500 Coins", Description: "A bag of coins", Price: "$3.99", Kind: domain.ProductOneTime},
	{ProductID: "remove_ads", Title: "Remove Ads", Description: "No more banners", Price: "$1.99", Kind: domain.ProductOneTime},
	{ProductID: "premium_monthly", Title: "Premium", Description: "Monthly premium pass", Price: "$4.99/mo", Kind: domain.ProductSubscription},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       observability.LogLevel(cfg.LogLevel),
		Format:      observability.LogFormat(cfg.LogFormat),
		ServiceName: "billingkit",
	})

	var verifier domain.ReceiptVerifier
	if !cfg.SkipVerification {
		v, err := crypto.NewVerifier(cfg.ProviderPublicKey)
		if err != nil {
			logger.Error("failed to configure receipt verifier", "error", err)
			os.Exit(1)
		}
		verifier = v
	}

	var events domain.EventPublisher
	if cfg.EventsAMQPURL != "" {
		publisher, err := eventbus.NewAMQPPublisher(cfg.EventsAMQPURL, logger)
		if err != nil {
			logger.Error("failed to connect event publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		events = publisher
	} else {
		events = eventbus.NewInProcessBus(logger)
	}

	provider := fakeprovider.New(demoCatalog, cfg.ProviderLatency)
	wrapped := resilience.NewBreakerProvider(provider, resilience.DefaultBreakerConfig(), logger)

	orchestrator, err := application.NewOrchestrator(wrapped, verifier, events, logger, application.Config{
		SkipVerification: cfg.SkipVerification,
	})
	if err != nil {
		logger.Error("failed to build orchestrator", "error", err)
		os.Exit(1)
	}
	provider.SetSink(orchestrator)
	defer orchestrator.Teardown()

	cli.SetLogger(logger)
	cli.SetApp(&cli.App{Orchestrator: orchestrator})
	cli.Execute()
}
