package main // Entry point package

import (
	"context" // context for startup deadlines
	"log"     // Logging library
	"time"

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/aroschi/gestimmo/internal/config"
	"github.com/aroschi/gestimmo/internal/database"
	"github.com/aroschi/gestimmo/internal/handler"
	"github.com/aroschi/gestimmo/internal/middleware"
	"github.com/aroschi/gestimmo/internal/queue"
	"github.com/aroschi/gestimmo/internal/repository"
	"github.com/aroschi/gestimmo/internal/router"
)

func main() {
	// .env is optional; in production the variables come from the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Redis is optional. A nil client turns the cache and the rate
	// limiter into pass-through middleware.
	rdb := config.NewRedisClient()

	// Repositories.
	owners := repository.NewOwnerRepo(db)
	renters := repository.NewRenterRepo(db)
	tokens := repository.NewTokenRepo(db)
	buildings := repository.NewBuildingRepo(db)
	apartments := repository.NewApartmentRepo(db)
	contracts := repository.NewContractRepo(db, cfg.AllowDoubleOccupancy)
	statuses := repository.NewStatusRepo(db)
	bills := repository.NewBillRepo(db)
	tasks := repository.NewTaskRepo(db)
	repairs := repository.NewRepairRepo(db)
	messages := repository.NewMessageRepo(db)
	files := repository.NewFileRepo(db)

	// Handlers.
	auth := handler.NewAuthHandler(owners, renters, tokens, cfg)
	ownerHandlers := router.OwnerHandlers{
		Buildings:  handler.NewBuildingHandler(buildings),
		Apartments: handler.NewApartmentHandler(apartments),
		Contracts:  handler.NewContractHandler(contracts),
		Renters:    handler.NewRenterHandler(renters, cfg.BcryptCost),
		Statuses:   handler.NewStatusHandler(statuses),
		Bills:      handler.NewBillHandler(bills),
		Tasks:      handler.NewTaskHandler(tasks),
		Repairs:    handler.NewRepairHandler(repairs),
		Files:      handler.NewFileHandler(files),
	}
	tenant := handler.NewTenantHandler(contracts, bills, tasks, renters, cfg.BcryptCost)
	messaging := handler.NewMessageHandler(messages)
	browse := handler.NewBrowseHandler(apartments)

	e := echo.New()
	e.HideBanner = true

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret, limiter)
	router.RegisterPublic(e, browse, cache)
	router.RegisterOwner(e, ownerHandlers, cfg.JWTSecret)
	router.RegisterTenant(e, tenant, cfg.JWTSecret)
	router.RegisterMessaging(e, messaging, cfg.JWTSecret)

	// Background consumer for contract lifecycle events. Runs its own
	// reconnect loop; a broker outage never blocks the API.
	go func() {
		if err := queue.StartContractConsumer(); err != nil {
			log.Printf("contract consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
