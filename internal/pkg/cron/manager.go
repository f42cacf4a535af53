package cron

import (
	"SetMatch/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine        *cron.Cron
	reconcileSpec string
	reconcileJob  *job.MirrorReconcileJob
}

func NewCronManager(reconcileSpec string, reconcileJob *job.MirrorReconcileJob) *Manager {
	return &Manager{
		engine:        cron.New(cron.WithSeconds()),
		reconcileSpec: reconcileSpec,
		reconcileJob:  reconcileJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.reconcileSpec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(s.reconcileJob)); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动", "reconcile_spec", s.reconcileSpec)
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
