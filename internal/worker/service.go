package worker

import (
	"context"
	"errors"
	"time"

	"github.com/meili-next/internal/config"
	"github.com/meili-next/internal/logger"
	"github.com/meili-next/internal/queue"
	svc "github.com/meili-next/internal/service"

	"github.com/hibiken/asynq"
)

const (
	periodRefreshInterval = time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.PeriodService != nil {
		go s.runPeriodRefreshLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runPeriodRefreshLoop 周期滚动：保证当月周期行存在，并刷新当月业绩
func (s *Service) runPeriodRefreshLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PeriodService == nil {
		return
	}
	runOnce := func() {
		month := svc.CurrentMonth()
		if err := s.consumer.PeriodService.EnsureOpenPeriod(month); err != nil {
			logger.Warnw("worker_period_ensure_open_failed", "month", month, "error", err)
		}
		if s.consumer.TurnoverService == nil {
			return
		}
		if _, err := s.consumer.TurnoverService.RecomputeMonth(month); err != nil {
			logger.Warnw("worker_period_refresh_recompute_failed", "month", month, "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(periodRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
