package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"texcollab/config"
	"texcollab/config/database"
	"texcollab/internal/document/repository"
	"texcollab/internal/document/service"
	"texcollab/internal/markup"
	"texcollab/internal/presence"
	"texcollab/pkg/logger"
	"texcollab/router"
)

func main() {
	seedID := flag.String("seed", "", "create a document with this id from the default template and exit")
	seedOwner := flag.String("owner", "", "owner user id for -seed")
	seedTitle := flag.String("title", "", "title for -seed")
	seedGrants := flag.String("grant", "", "comma separated user:role grants applied with -seed")
	flag.Parse()

	// 1. Configuration comes from .env / the environment.
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		logger.Sugar.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Documents live in postgres unless no database is configured.
	var repo service.DocumentStore
	if cfg.UseMemoryStore() {
		logger.Sugar.Warn("No DATABASE_URL configured, documents are kept in memory")
		repo = repository.NewMemoryDocumentRepository()
	} else {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Sugar.Fatalf("Database unavailable: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(rootCtx, db); err != nil {
			logger.Sugar.Fatalf("Migration failed: %v", err)
		}
		repo = repository.NewDocumentRepository(db)
	}

	// 3. Presence lives in redis when configured so several server processes
	// share one view of who is online.
	var registry presence.Registry
	if cfg.RedisAddr == "" {
		registry = presence.NewMemoryRegistry(cfg.PresenceTTL)
	} else {
		rdb, err := database.ConnectRedis(rootCtx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			logger.Sugar.Fatalf("Redis unavailable: %v", err)
		}
		defer rdb.Close()
		registry = presence.NewRedisRegistry(rdb, cfg.PresenceTTL)
	}

	docService := service.NewDocumentService(repo, registry)

	if *seedID != "" {
		if err := seed(rootCtx, docService, *seedID, *seedOwner, *seedTitle, *seedGrants); err != nil {
			logger.Sugar.Fatalf("Seeding document %s failed: %v", *seedID, err)
		}
		logger.Sugar.Infof("Seeded document %s", *seedID)
		if !cfg.UseMemoryStore() {
			return
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(docService, []byte(cfg.JWTSecret)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
		}
	}()

	logger.Sugar.Infof("LaTeX document service listening on :%s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
	logger.Sugar.Info("Server stopped")
}

// seed creates a document from the default template. Documents are otherwise
// created by the host application, never by the editor API.
func seed(ctx context.Context, svc *service.DocumentService, docID, owner, title, grants string) error {
	if _, err := svc.CreateDocument(ctx, docID, owner, title, markup.DefaultTemplate); err != nil {
		return err
	}
	for _, grant := range strings.Split(grants, ",") {
		grant = strings.TrimSpace(grant)
		if grant == "" {
			continue
		}
		userID, role, ok := strings.Cut(grant, ":")
		if !ok {
			return errors.New("grant must look like user:role")
		}
		if err := svc.GrantAccess(ctx, docID, userID, role); err != nil {
			return err
		}
	}
	return nil
}
