package cli

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiDB/OxiWL/internal/config"
	"github.com/parisxmas/OxiDB/OxiWL/internal/db"
	"github.com/parisxmas/OxiDB/OxiWL/internal/handler"
	"github.com/parisxmas/OxiDB/OxiWL/internal/repository"
	"github.com/parisxmas/OxiDB/OxiWL/internal/router"
	"github.com/parisxmas/OxiDB/OxiWL/internal/service"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the whitelist HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig("oxiwl-api")
		if err != nil {
			return err
		}
		return runAPI(cmd.Context(), cfg)
	},
}

func runAPI(ctx context.Context, cfg *config.Config) error {
	pool, err := db.NewPool(cfg.OxiDB.Host, cfg.OxiDB.Port, cfg.OxiDB.PoolSize, cfg.OxiDB.Timeout)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Printf("Connected to OxiDB at %s:%d (pool size: %d)", cfg.OxiDB.Host, cfg.OxiDB.Port, cfg.OxiDB.PoolSize)

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	ipRepo := repository.NewIPRepo(pool)
	auditRepo := repository.NewAuditRepo(pool)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.API.JWTSecret, cfg.API.TokenTTL)
	auditSvc := service.NewAuditService(auditRepo)
	ipSvc := service.NewIPService(ipRepo, auditSvc)

	// Router
	r := router.New(cfg.API.JWTSecret, cfg.API.CORSOrigins,
		handler.NewAuthHandler(authSvc),
		handler.NewIPHandler(ipSvc),
		handler.NewAuditHandler(auditSvc),
		handler.NewHealthHandler(pool),
	)

	// Serve immediately; indexes and the admin account are set up in the
	// background on a dedicated connection.
	go backgroundInit(ctx, cfg, pool)

	log.Printf("OxiWL API starting on %s", cfg.API.Addr)
	return serve(ctx, &http.Server{Addr: cfg.API.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second})
}

func backgroundInit(ctx context.Context, cfg *config.Config, pool *db.Pool) {
	log.Printf("Background init: starting")
	initPool, err := db.NewPool(cfg.OxiDB.Host, cfg.OxiDB.Port, 1, cfg.OxiDB.Timeout)
	if err != nil {
		log.Printf("Warning: init pool connect failed, using main pool: %v", err)
		initPool = pool
	}
	defer func() {
		if initPool != pool {
			initPool.Close()
		}
	}()

	step := func(name string, fn func(ctx context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		start := time.Now()
		if err := fn(stepCtx); err != nil {
			log.Printf("Warning: %s failed: %v", name, err)
			return
		}
		log.Printf("Background init: %s ready (%s)", name, time.Since(start).Round(time.Millisecond))
	}

	userRepo := repository.NewUserRepo(initPool)
	authSvc := service.NewAuthService(userRepo, cfg.API.JWTSecret, cfg.API.TokenTTL)
	step("user indexes", userRepo.EnsureIndexes)
	step("whitelist indexes", repository.NewIPRepo(initPool).EnsureIndexes)
	step("audit indexes", repository.NewAuditRepo(initPool).EnsureIndexes)
	// Seeding needs the unique email index.
	step("admin user", func(ctx context.Context) error {
		return authSvc.SeedAdmin(ctx, cfg.API.AdminEmail, cfg.API.AdminPass)
	})
	log.Printf("Background init: all done")
}
