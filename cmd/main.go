package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	grpcctx "github.com/dtroode/podkeeper/internal/api/grpc/context"
	"github.com/dtroode/podkeeper/internal/api/grpc/router"
	grpcServer "github.com/dtroode/podkeeper/internal/api/grpc/server"
	"github.com/dtroode/podkeeper/internal/config"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
	"github.com/dtroode/podkeeper/internal/repository/postgres"
	"github.com/dtroode/podkeeper/internal/server"
	"github.com/dtroode/podkeeper/internal/service"
	"github.com/dtroode/podkeeper/internal/storage/memory"
	minioGateway "github.com/dtroode/podkeeper/internal/storage/minio"
	"github.com/dtroode/podkeeper/internal/storage/solid"
	"github.com/dtroode/podkeeper/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	tokenManager := token.NewJWT(cfg.Token.Secret, cfg.Token.TTL)

	gateway, err := newGateway(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize pod gateway", "error", err, "kind", cfg.GatewayKind)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	rosterRepo := postgres.NewRosterRepository(db)
	documentService := service.NewDocument(gateway, logger)
	accessService := service.NewAccess(gateway, logger, cfg.IdentityProvider)
	activityService := service.NewActivity(gateway, logger, cfg.Activity.Concurrency)
	rosterService := service.NewRoster(rosterRepo, activityService, logger, cfg.IdentityProvider, cfg.Activity.SnapshotTTL)
	ctxMgr := grpcctx.NewManager()

	r := router.New(documentService, accessService, rosterService, activityService, tokenManager, ctxMgr, logger)
	grpcSrv := grpcServer.NewGRPCServer(r.Register(), fmt.Sprintf(":%s", cfg.GRPC.Port))
	sl := server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)

	logAppVersion()

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "gateway", cfg.GatewayKind)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(grpcSrv)

	if cfg.CaseworkerToken != "" {
		session, err := tokenManager.Session(cfg.CaseworkerToken)
		if err != nil {
			logger.Fatal("failed to open caseworker session", "error", err)
		}
		logger.Info("Starting activity loop",
			"caseworker", session.Identity.Identifier,
			"interval", cfg.Activity.Interval)

		wg.Add(1)
		go func() {
			defer wg.Done()
			runActivityLoop(ctx, logger, activityService, rosterService, session, cfg.Activity.Interval)
		}()
	}

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", grpcSrv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// runActivityLoop stamps the caseworker's own activity and refreshes the
// roster snapshot every interval until ctx is cancelled.
func runActivityLoop(
	ctx context.Context,
	logger *logger.Logger,
	activity *service.Activity,
	roster *service.Roster,
	session model.Session,
	interval time.Duration,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := activity.MarkActive(ctx, session); err != nil {
			logger.Warn("failed to stamp caseworker activity", "reason", model.Reason(err), "error", err)
		}

		records, err := roster.Refresh(ctx, session)
		if err != nil {
			logger.Error("failed to refresh roster activity", "reason", model.Reason(err), "error", err)
		}
		for _, rec := range records {
			if rec.LastActive == nil {
				logger.Info("roster member activity unknown", "member", rec.User.Identifier)
				continue
			}
			logger.Info("roster member activity",
				"member", rec.User.Identifier,
				"last_active", rec.LastActive.Format(time.RFC3339))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newGateway(ctx context.Context, cfg *config.Config) (model.Gateway, error) {
	switch cfg.GatewayKind {
	case config.GatewayMemory:
		return memory.New(), nil

	case config.GatewayMinio:
		client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
			Secure: cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		g, err := minioGateway.NewGateway(ctx, client, cfg.Storage.Bucket, cfg.Storage.Scheme)
		if err != nil {
			return nil, err
		}
		return g, nil

	default:
		var layer solid.TransportLayer
		if cfg.Solid.CAFileName != "" {
			layer = solid.NewTLSTransport(cfg.Solid.CAFileName)
		} else {
			layer = solid.NewPlainTransport()
		}
		g, err := solid.NewGateway(layer, cfg.Solid.Timeout)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
