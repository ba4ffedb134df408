package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/carenest-app/bookingservice/internal/booking/repo/postgres"
	"github.com/carenest-app/bookingservice/internal/config"
	sharedlog "github.com/carenest-app/bookingservice/internal/log"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

// Seeds or replaces the pricing config from a JSON file. With no file
// argument the built-in default rate table is written, which is how a
// fresh environment gets its first config row.
func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := sharedlog.Init(cfg.Log.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	pricingCfg := pricing.DefaultConfig()
	if len(os.Args) > 1 {
		pricingCfg, err = readConfigFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read pricing config: %v", err)
		}
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	saved, err := store.Save(ctx, pricingCfg)
	if err != nil {
		log.Fatalf("Failed to save pricing config: %v", err)
	}

	fmt.Printf("Pricing config saved, version %d, %d base rate regions\n",
		saved.Version, len(saved.BaseRates))
}

func readConfigFile(path string) (pricing.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg pricing.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return pricing.Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if len(cfg.BaseRates["default"]) == 0 {
		return pricing.Config{}, fmt.Errorf("config has no default base rate row")
	}
	return cfg, nil
}
