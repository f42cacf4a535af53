package job

import (
	"SetMatch/internal/pkg/consts"
	"SetMatch/internal/pkg/logger"
	"SetMatch/internal/pkg/redis"
	"SetMatch/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	reconcileBatchLimit = 500
	reconcileLockTTL    = 4 * time.Minute
)

type lockFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration, retryTimes int) (bool, error)
type unlockFunc func(ctx context.Context, key string, value interface{})

// MirrorReconcileJob 定期扫描已处理但对端仍为 pending 的通知并补齐
type MirrorReconcileJob struct {
	negotiationSvc service.NegotiationService
	lookback       time.Duration
	now            func() time.Time
	tryLock        lockFunc
	unLock         unlockFunc
}

func NewMirrorReconcileJob(negotiationSvc service.NegotiationService, lookbackMinutes int) *MirrorReconcileJob {
	if lookbackMinutes <= 0 {
		lookbackMinutes = 60
	}
	return &MirrorReconcileJob{
		negotiationSvc: negotiationSvc,
		lookback:       time.Duration(lookbackMinutes) * time.Minute,
		now:            time.Now,
		tryLock:        redis.TryLock,
		unLock:         redis.UnLock,
	}
}

func (s *MirrorReconcileJob) Run() {
	traceID := "job-reconcile-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	// 多实例部署时只允许一个实例执行
	ok, err := s.tryLock(ctx, consts.MirrorReconcileLock, traceID, reconcileLockTTL, 1)
	if err != nil {
		log.ErrorContext(ctx, "acquire reconcile lock error", "err", err)
		return
	}
	if !ok {
		log.InfoContext(ctx, "reconcile skipped, lock held by another instance")
		return
	}
	defer s.unLock(ctx, consts.MirrorReconcileLock, traceID)

	start := s.now()
	repaired, err := s.negotiationSvc.Reconcile(ctx, start.Add(-s.lookback), reconcileBatchLimit)
	if err != nil {
		log.ErrorContext(ctx, "reconcile mirrors error", "err", err, "repaired", repaired)
		return
	}
	log.InfoContext(ctx, "MirrorReconcileJob finished", "repaired", repaired, "cost", time.Since(start).String())
}
