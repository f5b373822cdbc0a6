package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/eticloud-hub/rozgar-map/internal/cache"
	"github.com/eticloud-hub/rozgar-map/internal/db"
	"github.com/eticloud-hub/rozgar-map/internal/geo"
	"github.com/eticloud-hub/rozgar-map/internal/mgnrega"
	"github.com/eticloud-hub/rozgar-map/internal/middleware"
	"github.com/eticloud-hub/rozgar-map/internal/seeds"
	"github.com/eticloud-hub/rozgar-map/internal/syncjob"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"status":"ok"}`)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	responseCache := cache.New(0, 0, 0, true)

	module, err := mgnrega.Init(db.DB, responseCache)
	if err != nil {
		log.Fatalf("mgnrega init failed: %v", err)
	}

	// The embedded registry both seeds master data and feeds the geo
	// resolver its district extents.
	registry, err := seeds.Load()
	if err != nil {
		log.Fatalf("district registry failed: %v", err)
	}
	if err := seeds.Apply(db.DB, registry); err != nil {
		log.Fatalf("district seeding failed: %v", err)
	}

	geoHandler := &geo.Handler{
		Resolver:  geo.NewResolver(registry.Regions()),
		Locator:   geo.NewIPAPIClient(os.Getenv("IP_API_ENDPOINT")),
		Directory: module.Store,
	}

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)
	r.Get("/health", HealthHandler)

	r.Mount("/mgnrega", mgnrega.SetupRoutes(module.Handlers, module.Admin))
	r.Mount("/geo", geo.SetupRoutes(geoHandler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncjob.SchedulerFromEnv(module.Orchestrator).Start(ctx)

	server := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	fmt.Printf("Server listening on port :%s...\n", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
