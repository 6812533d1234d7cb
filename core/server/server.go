package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"go-agenda-sync/core/cache"
	"go-agenda-sync/core/config"
	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/database"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/modules/auth"
	"go-agenda-sync/modules/calendar"
	"go-agenda-sync/modules/notification"
	"go-agenda-sync/modules/reminder"
)

// Run boots the whole process: config, Postgres, the local store, the HTTP
// API, and the asynq worker plus scheduler that drive the reminder due check.
// It blocks until SIGINT or SIGTERM, then shuts everything down in order.
func Run() error {
	cfg, err := config.Init()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
	})
	if err != nil {
		return err
	}
	defer db.SQLx().Close()

	store, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return err
	}
	defer store.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	credentials := auth.Init(e, db)
	calendar.Init(e, store, credentials)
	reminder.Init(e, db, store)
	notification.Init(e, db)

	worker, periodic, err := startDueCheck(cfg, db, store)
	if err != nil {
		return err
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:Error", "error", err)
		}
	}()
	logger.Info("Server:Run:Started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Server:Shutdown:Start")

	periodic.Shutdown()
	worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	logger.Info("Server:Shutdown:Complete")
	return nil
}

// startDueCheck wires the reminder scheduler to asynq: a worker consuming the
// reminders queue with concurrency 1, a periodic registration of the due-check
// task, and one immediate enqueue so reminders that came due while the process
// was down fire without waiting a full period.
func startDueCheck(cfg *config.Config, db database.Database, store cache.Cache) (*asynq.Server, *asynq.Scheduler, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	scheduler := reminder.GetScheduler(db, store)

	mux := asynq.NewServeMux()
	mux.HandleFunc(constants.TaskTypeDueCheck, scheduler.HandleDueCheck)

	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{constants.QueueReminders: 1},
	})
	if err := worker.Start(mux); err != nil {
		return nil, nil, fmt.Errorf("failed to start due-check worker: %w", err)
	}

	task := asynq.NewTask(constants.TaskTypeDueCheck, nil, asynq.Queue(constants.QueueReminders))

	periodic := asynq.NewScheduler(redisOpt, nil)
	if _, err := periodic.Register(fmt.Sprintf("@every %s", constants.DueCheckInterval), task); err != nil {
		worker.Shutdown()
		return nil, nil, fmt.Errorf("failed to register due-check schedule: %w", err)
	}
	if err := periodic.Start(); err != nil {
		worker.Shutdown()
		return nil, nil, fmt.Errorf("failed to start due-check scheduler: %w", err)
	}

	client := asynq.NewClient(redisOpt)
	defer client.Close()
	if _, err := client.Enqueue(task); err != nil {
		logger.Warn("Server:StartDueCheck:CatchUpEnqueue:Error", "error", err)
	}

	logger.Info("Server:StartDueCheck:Started", "interval", constants.DueCheckInterval.String(), "queue", constants.QueueReminders)
	return worker, periodic, nil
}
