package main

import (
	"code_assessment/internal/api"
	"code_assessment/internal/app/execution"
	"code_assessment/internal/app/service"
	"code_assessment/internal/app/worker"
	"code_assessment/internal/catalog"
	"code_assessment/internal/common/security"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"code_assessment/internal/platform/config"
	"code_assessment/internal/platform/database"
	"code_assessment/internal/platform/lock"
	"code_assessment/internal/platform/logging"
	"code_assessment/internal/platform/queue"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logger.Info("configuration loaded", "env", cfg.AppEnv, "store", cfg.StoreDriver, "queue", cfg.QueueDriver, "executor", cfg.Executor)

	ctx := context.Background()

	// 2. Question catalog
	var questions []model.Question
	if cfg.QuestionsFile != "" {
		questions, err = catalog.LoadFile(cfg.QuestionsFile)
	} else {
		questions, err = catalog.LoadEmbedded()
	}
	if err != nil {
		return err
	}
	questionRepo, err := repository.NewCatalogQuestionRepository(questions)
	if err != nil {
		return err
	}
	logger.Info("question catalog loaded", "questions", questionRepo.Count(), "max_score", questionRepo.MaxTotalScore())

	readiness := map[string]api.ReadinessCheck{}

	// 3. Stores
	var (
		userRepo       repository.UserRepository
		submissionRepo repository.SubmissionRepository
		progressRepo   repository.ProgressRepository
		jobRepo        repository.GradingJobRepository
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			return err
		}
		defer database.Close(db)
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		userRepo = repository.NewPgUserRepository(db)
		submissionRepo = repository.NewPgSubmissionRepository(db)
		progressRepo = repository.NewPgProgressRepository(db, cfg.SessionBudgetSeconds)
		jobRepo = repository.NewPgGradingJobRepository(db)
		readiness["database"] = db.PingContext
	default:
		store := repository.NewMemoryStore(cfg.SessionBudgetSeconds)
		userRepo = repository.NewMemoryUserRepository()
		submissionRepo = store
		progressRepo = store
		jobRepo = repository.NewMemoryGradingJobRepository()
	}

	demoUsers, err := repository.DemoUsers()
	if err != nil {
		return err
	}
	if err := repository.SeedUsers(ctx, userRepo, demoUsers); err != nil {
		return err
	}

	// 4. Queue and progress lock
	var (
		jobQueue queue.JobQueue
		locker   lock.Locker
	)
	switch cfg.QueueDriver {
	case config.QueueRedis:
		rdb, err := queue.ConnectRedis(ctx, queue.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer queue.CloseRedis(rdb)
		jobQueue = queue.NewRedisQueue(rdb, cfg.GradingQueueName)
		locker = lock.NewRedisLocker(rdb, cfg.ProgressLockPrefix,
			time.Duration(cfg.ProgressLockTTLSeconds)*time.Second,
			time.Duration(cfg.ProgressLockWaitMillis)*time.Millisecond)
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	default:
		jobQueue = queue.NewMemoryQueue(cfg.QueueCapacity)
		locker = lock.NewMemoryLocker()
	}

	// 5. Executor
	var executor execution.Executor
	switch cfg.Executor {
	case config.ExecutorJudge0:
		executor = execution.NewJudge0Executor(execution.Judge0Config{
			BaseURL: cfg.Judge0URL,
			APIKey:  cfg.Judge0APIKey,
			Host:    cfg.Judge0Host,
			Logger:  logger,
		})
	default:
		executor = execution.NewSimulator(cfg.ExecMinDelay, cfg.ExecMaxDelay)
	}
	runner := execution.NewRunner(executor)

	// 6. Services
	tokens := security.NewTokenManager(cfg.JWTKey, cfg.JWTExp)
	authService := service.NewAuthService(userRepo, tokens)
	questionService := service.NewQuestionService(questionRepo)
	gradingService := service.NewGradingService(questionRepo, submissionRepo, progressRepo, runner, locker)
	gradingJobService := service.NewGradingJobService(jobRepo, questionRepo, jobQueue)
	progressService := service.NewProgressService(questionRepo, submissionRepo, progressRepo, locker, cfg.SessionBudgetSeconds)

	// 7. Grading workers
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	var wg sync.WaitGroup
	for i := 1; i <= cfg.GradingWorkers; i++ {
		w := worker.NewGradingWorker(i, jobQueue, jobRepo, gradingService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Start(workerCtx)
		}()
	}
	logger.Info("grading workers started", "count", cfg.GradingWorkers)

	// 8. Router & HTTP Server
	router := api.NewRouter(api.RouterDeps{
		Tokens:            tokens,
		RequestLogger:     logging.NewRequestLogger(cfg.LogLevel, cfg.LogFormat, cfg.AppEnv),
		CORSOrigins:       cfg.CORSOrigins,
		AuthService:       authService,
		QuestionService:   questionService,
		GradingService:    gradingService,
		GradingJobService: gradingJobService,
		ProgressService:   progressService,
		ReadinessChecks:   readiness,
	})

	// A synchronous submit runs every test case back to back.
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		workerCancel()
		wg.Wait()
		return err
	}

	logger.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	wg.Wait()

	logger.Info("server and workers stopped gracefully")
	return nil
}
