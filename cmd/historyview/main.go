package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medikart/medikart-client/internal/history"
	"github.com/medikart/medikart-client/internal/medicines"
	"github.com/medikart/medikart-client/internal/orders"
	"github.com/medikart/medikart-client/internal/query"
	"github.com/medikart/medikart-client/pkg/apiclient"
	"github.com/medikart/medikart-client/pkg/assets"
	"github.com/medikart/medikart-client/pkg/auth"
	"github.com/medikart/medikart-client/pkg/config"
	"github.com/medikart/medikart-client/pkg/env"
	"github.com/medikart/medikart-client/pkg/logger"
	"github.com/medikart/medikart-client/pkg/metrics"
	"github.com/medikart/medikart-client/pkg/types"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "historyview"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "historyview",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	tokens, err := tokenProvider()
	if err != nil {
		logg.Error(context.Background(), "failed to set up token provider", err)
		os.Exit(1)
	}

	api, err := apiclient.New(cfg.API, tokens, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create api client", err)
		os.Exit(1)
	}

	queryMetrics := metrics.NewQueryMetrics(prometheus.DefaultRegisterer)
	cache := query.NewCache(query.Options{
		Freshness: cfg.Cache.Freshness,
		Logger:    logg,
		Metrics:   queryMetrics,
	})

	pipeline, err := history.New(history.Params{
		Medicines: medicines.NewService(api),
		Orders:    orders.NewService(api),
		Cache:     cache,
		Config:    cfg.History,
		Logger:    logg,
		Metrics:   queryMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create history pipeline", err)
		os.Exit(1)
	}

	view := pipeline.Load(context.Background())
	render(view, assets.New(config.ServerOrigin(cfg.API.BaseURL(), cfg.API.PageOrigin)))
}

// tokenProvider picks a session source from the environment. A token file
// wins over an inline token; with neither set, requests go out anonymous.
func tokenProvider() (auth.TokenProvider, error) {
	if path := env.Get("MEDIKART_TOKEN_FILE", ""); path != "" {
		return auth.NewFileProvider(path)
	}
	if token := env.Get("MEDIKART_TOKEN", ""); token != "" {
		return auth.StaticProvider(token), nil
	}
	return auth.NoneProvider(), nil
}

func render(view history.View, resolver *assets.Resolver) {
	switch view.State {
	case history.StateError:
		fmt.Printf("error: %s\n", view.Message)
	case history.StateHasHistory:
		fmt.Printf("previously purchased (%d):\n", len(view.Medicines))
		for _, medicine := range view.Medicines {
			renderMedicine(medicine, resolver)
		}
	case history.StateEmptyWithFallback:
		fmt.Println("no purchase history")
		if view.MostRecentOrder != nil {
			fmt.Printf("most recent order #%s:\n", view.MostRecentOrder.ShortID())
			for _, item := range view.RecentItems {
				fmt.Printf("  %s x%d @ %s\n", item.DisplayName(), item.Quantity, item.UnitPrice().StringFixed(2))
			}
		}
		if len(view.Recommendations) > 0 {
			fmt.Printf("you may also need (%d):\n", len(view.Recommendations))
			for _, medicine := range view.Recommendations {
				renderMedicine(medicine, resolver)
			}
		}
	default:
		fmt.Println("loading")
	}
}

func renderMedicine(medicine types.Medicine, resolver *assets.Resolver) {
	label := medicine.Name
	if price, ok := medicine.PriceString(); ok {
		label += "  " + price
	}
	if !medicine.Available() {
		label += "  (out of stock)"
	}
	fmt.Printf("  %s\n", label)
	if url, ok := resolver.PrimaryImage(medicine); ok {
		fmt.Printf("    image: %s\n", url)
	} else {
		fmt.Printf("    image: [%s]\n", assets.Initials(medicine.Name))
	}
}
