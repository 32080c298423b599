package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
)

// Server is the worker server
type Server struct {
	logger    *zap.Logger
	config    *config.Config
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// Dependencies holds the services the workers drive
type Dependencies struct {
	Weather    WeatherSyncer
	Irrigation FieldChecker
	Market     TrendRefresher
	Reports    ReportBuilder
	Sessions   SessionArchiver
}

// RedisOpt returns the asynq connection options for the configured Redis
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

// NewServer creates a new worker server
func NewServer(logger *zap.Logger, cfg *config.Config, deps *Dependencies) (*Server, error) {
	redisOpt := RedisOpt(cfg)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				cfg.Worker.QueueCritical: 6,
				cfg.Worker.QueueDefault:  3,
				cfg.Worker.QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing failed",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
			}),
			Logger: &asynqLogger{logger: logger},
		},
	)

	return &Server{
		logger:    logger,
		config:    cfg,
		server:    server,
		mux:       NewMux(logger, cfg, deps),
		scheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: &asynqLogger{logger: logger}}),
	}, nil
}

// NewMux registers a handler for every task type
func NewMux(logger *zap.Logger, cfg *config.Config, deps *Dependencies) *asynq.ServeMux {
	syncWorker := NewSyncWorker(logger, deps.Weather, deps.Irrigation, deps.Market)
	exportWorker := NewExportWorker(logger, deps.Reports)
	cleanupWorker := NewCleanupWorker(logger, deps.Sessions, cfg.Worker.SessionInactiveAfter)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeWeatherSync, syncWorker.ProcessWeatherSync)
	mux.HandleFunc(TypeIrrigationCheck, syncWorker.ProcessIrrigationCheck)
	mux.HandleFunc(TypeMarketRefresh, syncWorker.ProcessMarketRefresh)
	mux.HandleFunc(TypeReportExport, exportWorker.ProcessTask)
	mux.HandleFunc(TypeSessionCleanup, cleanupWorker.ProcessTask)
	return mux
}

// Start registers the periodic tasks and runs until the process is signalled
func (s *Server) Start() error {
	if err := s.registerScheduledTasks(); err != nil {
		return fmt.Errorf("failed to register scheduled tasks: %w", err)
	}

	go func() {
		if err := s.scheduler.Run(); err != nil {
			s.logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
	)

	return s.server.Run(s.mux)
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
	s.scheduler.Shutdown()
}

type periodicTask struct {
	cron  string
	task  *asynq.Task
	queue string
}

// periodicTasks lists the scheduled tasks. An empty cron disables a task.
func periodicTasks(cfg *config.Config) ([]periodicTask, error) {
	cleanup, err := NewSessionCleanupTask(&SessionCleanupPayload{})
	if err != nil {
		return nil, err
	}
	w := cfg.Worker
	all := []periodicTask{
		{cron: w.WeatherSyncCron, task: NewWeatherSyncTask(), queue: w.QueueDefault},
		{cron: w.IrrigationCheckCron, task: NewIrrigationCheckTask(), queue: w.QueueCritical},
		{cron: w.MarketRefreshCron, task: NewMarketRefreshTask(), queue: w.QueueLow},
		{cron: w.SessionCleanupCron, task: cleanup, queue: w.QueueLow},
	}

	tasks := all[:0]
	for _, pt := range all {
		if pt.cron != "" {
			tasks = append(tasks, pt)
		}
	}
	return tasks, nil
}

func (s *Server) registerScheduledTasks() error {
	tasks, err := periodicTasks(s.config)
	if err != nil {
		return err
	}
	for _, pt := range tasks {
		if _, err := s.scheduler.Register(pt.cron, pt.task, asynq.Queue(pt.queue)); err != nil {
			return fmt.Errorf("failed to register %s task: %w", pt.task.Type(), err)
		}
		s.logger.Info("scheduled task registered",
			zap.String("type", pt.task.Type()),
			zap.String("cron", pt.cron),
		)
	}
	return nil
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
