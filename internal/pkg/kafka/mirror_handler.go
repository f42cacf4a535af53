package kafka

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/logger"
	"SetMatch/internal/service"
	"context"
	stdErrors "errors"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// MirrorRepairHandler 消费镜像补偿任务
type MirrorRepairHandler struct {
	negotiationSvc service.NegotiationService
}

func NewMirrorRepairHandler(negotiationSvc service.NegotiationService) *MirrorRepairHandler {
	return &MirrorRepairHandler{negotiationSvc: negotiationSvc}
}

func (s *MirrorRepairHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("mirror repair consumer setup")
	return nil
}

func (s *MirrorRepairHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("mirror repair consumer cleanup")
	return nil
}

func (s *MirrorRepairHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("mirror repair process batch error", "err", err)
		return err
	}
	return nil
}

// logic 无法修复的消息 (格式错误 / 通知不存在) 直接丢弃，其余错误交给重试
func (s *MirrorRepairHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ctx = logger.NewTraceContext(ctx, "mq-mirror-")

	var task dto.MirrorRepairTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		log.ErrorContext(ctx, "unmarshal mirror repair task error", "err", err, "offset", msg.Offset)
		return nil
	}

	err := s.negotiationSvc.RepairMirror(ctx, &task)
	switch {
	case err == nil:
		return nil
	case stdErrors.Is(err, service.ErrParamInvalid), stdErrors.Is(err, service.ErrNotificationNotFound):
		log.WarnContext(ctx, "drop mirror repair task", "notification_id", task.NotificationID, "err", err)
		return nil
	default:
		return errors.Wrapf(err, "repair mirror of %s", task.NotificationID)
	}
}
