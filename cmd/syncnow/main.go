// syncnow runs one manual sync pass from the command line and prints
// the tally. Useful for backfilling after an outage without touching
// the admin endpoint.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/eticloud-hub/rozgar-map/internal/cache"
	"github.com/eticloud-hub/rozgar-map/internal/db"
	"github.com/eticloud-hub/rozgar-map/internal/mgnrega"
)

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	responseCache := cache.New(0, 0, 0, false)
	module, err := mgnrega.Init(db.DB, responseCache)
	if err != nil {
		log.Fatalf("Init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tally, err := module.Orchestrator.RunSync(ctx, "cli_sync", true)
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}

	fmt.Printf("✓ Sync finished: %d succeeded, %d failed\n", tally.SuccessCount, tally.ErrorCount)
	for _, e := range tally.Errors {
		fmt.Printf("  - %s\n", e)
	}
	if tally.ErrorCount > 0 {
		os.Exit(1)
	}
}
