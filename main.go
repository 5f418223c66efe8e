package main

import (
	"context"
	"net/http"
	"time"

	"github.com/yash-flix/VeriDoc-Ai/classifier"
	"github.com/yash-flix/VeriDoc-Ai/config"
	"github.com/yash-flix/VeriDoc-Ai/controllers"
	"github.com/yash-flix/VeriDoc-Ai/models"
	"github.com/yash-flix/VeriDoc-Ai/repository"
	"github.com/yash-flix/VeriDoc-Ai/routes"
	"github.com/yash-flix/VeriDoc-Ai/storage"
	"github.com/yash-flix/VeriDoc-Ai/utils"
	"github.com/yash-flix/VeriDoc-Ai/verification"
	"github.com/yash-flix/VeriDoc-Ai/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	logger := utils.Logger

	db := config.InitDatabase(&models.Upload{})
	repo := repository.NewUploadRepo(db)
	rc := utils.GetRedis()

	local, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+"/static/uploads")
	if err != nil {
		utils.Sugar.Fatalf("local storage: %v", err)
	}
	store := buildStore(cfg, local)

	clientCfg := classifier.Config{
		BaseURL:     cfg.HFBaseURL,
		APIKey:      cfg.HFAPIKey,
		MaxAttempts: cfg.HFMaxAttempts,
		Timeout:     time.Duration(cfg.HFTimeoutSec) * time.Second,
		Logger:      logger.Named("classifier"),
	}
	if rc != nil && cfg.ClassifierCacheMinutes > 0 {
		clientCfg.Cache = utils.NewRedisCache(rc, "veridoc:cls:", time.Duration(cfg.ClassifierCacheMinutes)*time.Minute, logger)
	}
	if cfg.HFAPIKey == "" {
		utils.Sugar.Warn("no classifier API key configured, unauthenticated requests are heavily rate limited")
	}

	verifier := verification.New(verification.Config{
		Classifier: classifier.New(clientCfg),
		Fetcher: &verification.StoreFetcher{
			Stores: map[string]verification.BlobGetter{
				local.Name(): local,
				store.Name(): store,
			},
			HTTPClient: &http.Client{},
			Timeout:    time.Duration(cfg.DownloadTimeoutSec) * time.Second,
			MaxBytes:   int64(cfg.MaxUploadMB) << 20,
		},
		Duplicates:     repo,
		DocumentModels: cfg.DocumentModels,
		ImageModels:    cfg.ImageModels,
		Logger:         logger.Named("verify"),
	})

	var locker worker.Locker = worker.NewMemoryLocker()
	if rc != nil {
		locker = worker.NewRedisLocker(rc, "")
	}
	lockTTL := time.Duration(cfg.LockTTLSeconds) * time.Second
	runner := worker.NewRunner(repo, verifier, locker, lockTTL, logger.Named("runner"))

	queue := buildQueue(cfg, runner, lockTTL)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	if cfg.PendingSweepMinutes > 0 {
		worker.StartPendingSweeper(bgCtx, repo, queue, time.Duration(cfg.PendingSweepMinutes)*time.Minute, logger.Named("sweeper"))
	}

	r := routes.SetupRouter(routes.Deps{
		Config: cfg,
		Uploads: controllers.NewUploadController(repo, store, runner, queue, controllers.UploadOptions{
			MaxBytes:     int64(cfg.MaxUploadMB) << 20,
			AsyncDefault: cfg.VerifyAsync,
		}, logger.Named("upload")),
		Documents: controllers.NewDocumentController(repo, runner, queue, logger.Named("documents")),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err = utils.GraceServer(":"+cfg.AppPort, r, func(ctx context.Context) {
		stopBackground()
		if err := queue.Close(ctx); err != nil {
			utils.Sugar.Warnf("verification queue did not drain: %v", err)
		}
	})
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
	_ = logger.Sync()
}

func buildStore(cfg config.AppConfig, local *storage.LocalStore) storage.Store {
	s3cfg := storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
	}
	switch cfg.StorageProvider {
	case storage.ProviderS3:
		s, err := storage.NewS3Store(s3cfg)
		if err != nil {
			utils.Sugar.Fatalf("s3 storage: %v", err)
		}
		return s
	case storage.ProviderMinio:
		s, err := storage.NewMinioStore(s3cfg)
		if err != nil {
			utils.Sugar.Fatalf("minio storage: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.EnsureBucket(ctx); err != nil {
			utils.Sugar.Fatalf("minio bucket %s: %v", cfg.S3Bucket, err)
		}
		return s
	default:
		return local
	}
}

func buildQueue(cfg config.AppConfig, runner *worker.Runner, lockTTL time.Duration) worker.Queue {
	if cfg.QueueBackend == "nsq" {
		q, err := worker.NewNSQQueue(worker.NSQConfig{
			NSQDAddr:       cfg.NSQDAddr,
			NSQLookupdAddr: cfg.NSQLookupdAddr,
			Topic:          cfg.NSQTopic,
			Channel:        cfg.NSQChannel,
			MaxInFlight:    cfg.WorkerCount,
			JobTimeout:     lockTTL,
		}, runner.Process, utils.Logger.Named("queue"))
		if err != nil {
			utils.Sugar.Fatalf("nsq queue: %v", err)
		}
		return q
	}
	return worker.NewMemoryQueue(runner.Process, cfg.WorkerCount, cfg.QueueSize, utils.Logger.Named("queue"))
}
