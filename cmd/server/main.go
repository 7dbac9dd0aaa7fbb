package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"popballoons/internal/config"
	"popballoons/internal/domain"
	apphttp "popballoons/internal/http"
	"popballoons/internal/payment"
	"popballoons/internal/placement"
	"popballoons/internal/repository/sqlite"
	"popballoons/internal/service"
	"popballoons/internal/session"
	"popballoons/internal/storage"
	"popballoons/internal/wallet"
)

func main() {
	configPath := pflag.String("config", "", "path to a config file (yaml, json or toml)")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	candidateRepo := sqlite.NewCandidateRepository(db)
	purchaseRepo := sqlite.NewPurchaseRepository(db)

	if err := candidateRepo.Init(ctx); err != nil {
		logger.Fatalf("init candidate repository: %v", err)
	}
	if err := purchaseRepo.Init(ctx); err != nil {
		logger.Fatalf("init purchase repository: %v", err)
	}

	wallets, err := buildWallets(cfg, logger)
	if err != nil {
		logger.Fatalf("setup wallets: %v", err)
	}

	media, profiles := buildStorage(ctx, cfg, logger)

	grid, err := placement.NewGrid(cfg.Grid.Width, cfg.Grid.Height)
	if err != nil {
		logger.Fatalf("setup grid: %v", err)
	}

	submitter := payment.NewSubmitter(payment.Config{
		ContractAccount: cfg.Chain.ContractAccount,
		TokenContract:   cfg.Chain.TokenContract,
		Symbol:          cfg.Chain.Symbol,
		Logger:          logger,
	})
	rentFee := cfg.Payment.RentFee
	catalogue := payment.NewCatalogue(func(int, int) float64 { return rentFee })

	signupService := service.NewSignupService(service.SignupDeps{
		Candidates: candidateRepo,
		Media:      media,
		Profiles:   profiles,
		Placer:     grid,
		Logger:     logger,
	})
	purchaseService := service.NewPurchaseService(submitter, catalogue, purchaseRepo, candidateRepo, logger)

	ttl := time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
	sessions := session.NewStore(wallets, cfg.Session.MaxClients, ttl, logger)
	audit := logger.WithField("component", "audit")
	sessions.OnEvent(func(ev session.Event) {
		audit.WithFields(logrus.Fields{
			"event":   ev.Kind,
			"account": ev.Session.Account,
			"method":  ev.Session.Method,
			"session": ev.Session.ID,
		}).Info("wallet session changed")
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Options{
		Sessions:       sessions,
		Wallets:        wallets,
		Purchases:      purchaseService,
		Signup:         signupService,
		Media:          media,
		Tokens:         apphttp.NewTokenIssuer(cfg.Auth.JWTSecret, ttl),
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Logger:         logger,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	sessions.Wait()

	logger.Info("bye")
}

func buildWallets(cfg config.Config, logger *logrus.Logger) (*wallet.Registry, error) {
	network, err := wallet.ParseNetwork(cfg.Chain.Network)
	if err != nil {
		return nil, err
	}
	rpc := cfg.Chain.RPCEndpoint
	if rpc == "" {
		rpc = network.DefaultRPCEndpoint()
	}
	logger.Infof("using %s chain %s via %s", network, network.ChainID(), rpc)

	wallets := wallet.NewRegistry()
	if cfg.Wallet.CloudEndpoint != "" {
		cloud := wallet.NewCloudClient(cfg.Wallet.CloudEndpoint, rpc, nil)
		wallets.Register(domain.AuthMethodCloud, func() wallet.Backend {
			return wallet.NewCloudWallet(cloud)
		})
	} else {
		logger.Warn("wallet cloud endpoint not configured, cloud login disabled")
	}

	var link wallet.LinkAPI
	if cfg.Wallet.AnchorEndpoint != "" {
		link = wallet.NewLinkClient(cfg.Wallet.AnchorEndpoint, network, rpc, nil)
	} else {
		logger.Warn("wallet anchor endpoint not configured, anchor login will report the wallet as unavailable")
	}
	identifier := cfg.Wallet.AppIdentifier
	wallets.Register(domain.AuthMethodAnchor, func() wallet.Backend {
		return wallet.NewAnchorWallet(link, identifier)
	})
	return wallets, nil
}

// buildStorage pins media on IPFS and mirrors it to S3 when a bucket is set.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, storage.JSONPinner) {
	pinata := storage.NewPinataService(storage.PinataOptions{
		JWT:      cfg.Pinata.JWT,
		Endpoint: cfg.Pinata.Endpoint,
		Gateway:  cfg.Pinata.Gateway,
	})
	if cfg.Pinata.JWT == "" {
		logger.Warn("pinata jwt not configured, profile uploads will fall back to urls")
	}

	var profiles storage.JSONPinner
	if cfg.Pinata.PinProfiles {
		profiles = pinata
	}

	var mirror storage.Mirror
	if cfg.Storage.Bucket != "" {
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			logger.Warnf("s3 mirror disabled: %v", err)
		} else {
			logger.Infof("mirroring media to s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
			mirror = storage.NewS3Mirror(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
		}
	}

	return storage.NewMirroredService(pinata, mirror, cfg.Storage.MaxUploadBytes, logger), profiles
}

func newS3Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
