package service

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/mongo"
	"SetMatch/internal/pkg/realtime"
	"context"
	"errors"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MirrorQueue 镜像通知补偿队列
type MirrorQueue interface {
	EnqueueMirrorRepair(ctx context.Context, task *dto.MirrorRepairTask) error
}

type NegotiationOptions struct {
	PairedUpdate string
	Timeouts     Timeouts
	Now          func() time.Time
}

// NegotiationService 报价与好友申请的响应状态机：pending -> accepted | rejected
type NegotiationService interface {
	Respond(ctx context.Context, callerID uint64, notificationID string, action string, actorName string) (*dto.RespondResultDTO, error)
	RespondFriendRequest(ctx context.Context, callerID uint64, requestID string, action string) (*dto.RespondResultDTO, error)
	RepairMirror(ctx context.Context, task *dto.MirrorRepairTask) error
	Reconcile(ctx context.Context, since time.Time, limit int64) (int, error)
}

type negotiationServiceImpl struct {
	notificationRepo  mongo.NotificationRepo
	friendRequestRepo mongo.FriendRequestRepo
	resolver          CounterpartResolver
	directory         UserDirectory
	registry          realtime.Registry
	queue             MirrorQueue
	writer            pairedWriter
	timeouts          Timeouts
	now               func() time.Time
}

func NewNegotiationService(
	notification mongo.NotificationRepo,
	friendRequest mongo.FriendRequestRepo,
	resolver CounterpartResolver,
	directory UserDirectory,
	registry realtime.Registry,
	tx mongo.Transactor,
	queue MirrorQueue,
	opts NegotiationOptions,
) NegotiationService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &negotiationServiceImpl{
		notificationRepo:  notification,
		friendRequestRepo: friendRequest,
		resolver:          resolver,
		directory:         directory,
		registry:          registry,
		queue:             queue,
		writer:            newPairedWriter(tx, opts.PairedUpdate),
		timeouts:          opts.Timeouts,
		now:               now,
	}
}

// Respond 接收方响应一条报价 / 好友申请通知，并同步对方的镜像通知
func (s *negotiationServiceImpl) Respond(ctx context.Context, callerID uint64, notificationID string, action string, actorName string) (*dto.RespondResultDTO, error) {
	if !validAction(action) {
		return nil, ErrParamInvalid
	}
	id, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return nil, ErrParamInvalid
	}

	n, err := s.getNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != callerID {
		return nil, ErrForbidden
	}
	if !n.IsNegotiable() || n.Role != mongo.RoleReceiver {
		return nil, ErrNotificationNotRespondable
	}
	if n.Status != mongo.StatusPending {
		return nil, ErrNotificationProcessed
	}

	if n.Type == mongo.TypeFriendRequest {
		if n.FriendRequestID == nil {
			return nil, ErrNotificationNotRespondable
		}
		return s.respondFriendRequest(ctx, callerID, *n.FriendRequestID, action, actorName)
	}
	return s.respondOffer(ctx, n, action, actorName)
}

func (s *negotiationServiceImpl) respondOffer(ctx context.Context, n *mongo.Notification, action string, actorName string) (*dto.RespondResultDTO, error) {
	names, err := s.directory.DisplayNames(ctx, []uint64{n.UserID, n.PartnerID})
	if err != nil {
		return nil, err
	}
	if actorName == "" {
		actorName = nameOr(names, n.UserID)
	}

	status := statusOf(action)
	now := s.now()
	ownPatch := statusPatch(status, outcomeMessage(mongo.TypeOffer, action, mongo.RoleReceiver, nameOr(names, n.PartnerID)), now)
	mirrorMessage := outcomeMessage(mongo.TypeOffer, action, mongo.RoleSender, actorName)

	var own, mirror *mongo.Notification
	if s.writer.transactional {
		err = s.writer.run(ctx, func(ctx context.Context) error {
			var err error
			if own, err = s.transition(ctx, n.ID, ownPatch); err != nil {
				return err
			}
			mirror, err = s.mirror(ctx, own, status, mirrorMessage, now)
			return err
		})
		if err != nil {
			return nil, err
		}
		pushNotification(ctx, s.registry, own)
		pushNotification(ctx, s.registry, mirror)
		return &dto.RespondResultDTO{Status: status}, nil
	}

	if own, err = s.transition(ctx, n.ID, ownPatch); err != nil {
		return nil, err
	}
	pushNotification(ctx, s.registry, own)

	if mirror, err = s.mirror(ctx, own, status, mirrorMessage, now); err != nil {
		s.scheduleRepair(ctx, own, actorName, err)
	} else {
		pushNotification(ctx, s.registry, mirror)
	}
	return &dto.RespondResultDTO{Status: status}, nil
}

// RespondFriendRequest 好友申请的接收方接受或拒绝
func (s *negotiationServiceImpl) RespondFriendRequest(ctx context.Context, callerID uint64, requestID string, action string) (*dto.RespondResultDTO, error) {
	if !validAction(action) {
		return nil, ErrParamInvalid
	}
	id, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return nil, ErrParamInvalid
	}
	return s.respondFriendRequest(ctx, callerID, id, action, "")
}

// respondFriendRequest 先抢占接收方通知再推进申请，接收方通知未落定前申请保持 pending 可重试
func (s *negotiationServiceImpl) respondFriendRequest(ctx context.Context, callerID uint64, id primitive.ObjectID, action string, actorName string) (*dto.RespondResultDTO, error) {
	var req *mongo.FriendRequest
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		req, err = s.friendRequestRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, err
	}
	if req.To != callerID {
		return nil, ErrForbidden
	}
	if req.Status != mongo.StatusPending {
		return nil, ErrFriendRequestProcessed
	}

	names, err := s.directory.DisplayNames(ctx, []uint64{req.From, req.To})
	if err != nil {
		return nil, err
	}
	if actorName == "" {
		actorName = nameOr(names, req.To)
	}

	status := statusOf(action)
	now := s.now()
	receiverMessage := outcomeMessage(mongo.TypeFriendRequest, action, mongo.RoleReceiver, nameOr(names, req.From))
	senderMessage := outcomeMessage(mongo.TypeFriendRequest, action, mongo.RoleSender, actorName)

	var receiver, sender *mongo.Notification
	var claimed bool
	if s.writer.transactional {
		err = s.writer.run(ctx, func(ctx context.Context) error {
			var err error
			if receiver, claimed, err = s.settleFriendReceiver(ctx, req, status, receiverMessage, now); err != nil {
				return err
			}
			if err = s.transitionFriendRequest(ctx, req.ID, status, now); err != nil {
				return err
			}
			if sender, err = s.mirror(ctx, receiverView(req), status, senderMessage, now); err != nil {
				return err
			}
			return s.ensureFriendship(ctx, req.From, req.To, status)
		})
		if err != nil {
			return nil, err
		}
		if claimed {
			pushNotification(ctx, s.registry, receiver)
		}
		pushNotification(ctx, s.registry, sender)
		return &dto.RespondResultDTO{Status: status}, nil
	}

	if receiver, claimed, err = s.settleFriendReceiver(ctx, req, status, receiverMessage, now); err != nil {
		return nil, err
	}
	if claimed {
		pushNotification(ctx, s.registry, receiver)
	}

	// 接收方已落定，后续失败交给修复任务补齐
	err = s.transitionFriendRequest(ctx, req.ID, status, now)
	if err == nil {
		sender, err = s.mirror(ctx, receiverView(req), status, senderMessage, now)
	}
	if err == nil {
		err = s.ensureFriendship(ctx, req.From, req.To, status)
	}
	if err != nil {
		s.scheduleRepair(ctx, receiver, actorName, err)
	}
	pushNotification(ctx, s.registry, sender)
	return &dto.RespondResultDTO{Status: status}, nil
}

// RepairMirror 重新执行镜像同步，对已同步的记录无副作用
func (s *negotiationServiceImpl) RepairMirror(ctx context.Context, task *dto.MirrorRepairTask) error {
	id, err := primitive.ObjectIDFromHex(task.NotificationID)
	if err != nil {
		return ErrParamInvalid
	}
	n, err := s.getNotification(ctx, id)
	if err != nil {
		return err
	}
	if !isSettledReceiver(n) {
		return nil
	}
	_, err = s.repair(ctx, n, task.ActorName, true)
	return err
}

// Reconcile 扫描 since 之后进入终态的接收方通知，补齐仍为 pending 的镜像
func (s *negotiationServiceImpl) Reconcile(ctx context.Context, since time.Time, limit int64) (int, error) {
	var list []*mongo.Notification
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		list, err = s.notificationRepo.FindSettledSince(ctx, since, limit)
		return err
	})
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, n := range list {
		if ctx.Err() != nil {
			return repaired, ctx.Err()
		}
		changed, err := s.repair(ctx, n, "", false)
		if err != nil {
			log.WarnContext(ctx, "mirror reconcile failed", "notification_id", n.ID.Hex(), "err", err)
			continue
		}
		if changed {
			repaired++
		}
	}
	return repaired, nil
}

func (s *negotiationServiceImpl) repair(ctx context.Context, n *mongo.Notification, actorName string, ensureFriendship bool) (bool, error) {
	changed := false
	if n.Type == mongo.TypeFriendRequest && n.FriendRequestID != nil {
		advanced, err := s.advanceFriendRequest(ctx, *n.FriendRequestID, n.Status)
		if err != nil {
			return false, err
		}
		changed = advanced
	}

	counterpart, err := s.findCounterpart(ctx, n)
	if err != nil {
		return changed, err
	}

	if counterpart != nil && counterpart.Status == mongo.StatusPending {
		if actorName == "" {
			actorName = s.displayNameOrFallback(ctx, n.UserID)
		}
		message := outcomeMessage(n.Type, actionOf(n.Status), mongo.RoleSender, actorName)
		updated, err := s.settleRecord(ctx, counterpart, n.Status, message, s.now())
		if err != nil {
			return changed, err
		}
		if updated != nil {
			log.InfoContext(ctx, "mirror notification repaired", "notification_id", n.ID.Hex(), "counterpart_id", updated.ID.Hex())
			pushNotification(ctx, s.registry, updated)
			changed = true
		}
	}

	if n.Type == mongo.TypeFriendRequest && (changed || ensureFriendship) {
		if err = s.ensureFriendship(ctx, n.PartnerID, n.UserID, n.Status); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (s *negotiationServiceImpl) scheduleRepair(ctx context.Context, own *mongo.Notification, actorName string, cause error) {
	log.ErrorContext(ctx, "mirror notification update failed", "notification_id", own.ID.Hex(), "err", cause)
	if s.queue == nil {
		return
	}
	task := &dto.MirrorRepairTask{
		NotificationID: own.ID.Hex(),
		Status:         own.Status,
		Action:         actionOf(own.Status),
		ActorName:      actorName,
	}
	if err := s.queue.EnqueueMirrorRepair(ctx, task); err != nil {
		log.ErrorContext(ctx, "enqueue mirror repair failed, left to reconcile job", "notification_id", own.ID.Hex(), "err", err)
	}
}

func (s *negotiationServiceImpl) getNotification(ctx context.Context, id primitive.ObjectID) (*mongo.Notification, error) {
	var n *mongo.Notification
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		n, err = s.notificationRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

// transition 调用方自己的记录：CAS 失败即视为已处理
func (s *negotiationServiceImpl) transition(ctx context.Context, id primitive.ObjectID, patch mongo.NotificationPatch) (*mongo.Notification, error) {
	var updated *mongo.Notification
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		updated, err = s.notificationRepo.TransitionStatus(ctx, id, patch)
		return err
	})
	switch {
	case errors.Is(err, mongo.ErrStatusConflict):
		return nil, ErrNotificationProcessed
	case errors.Is(err, mongo.ErrNotFound):
		return nil, ErrNotificationNotFound
	case err != nil:
		return nil, err
	}
	return updated, nil
}

func (s *negotiationServiceImpl) transitionFriendRequest(ctx context.Context, id primitive.ObjectID, status string, at time.Time) error {
	err := s.timeouts.inStore(ctx, func(ctx context.Context) error {
		_, err := s.friendRequestRepo.TransitionStatus(ctx, id, status, at)
		return err
	})
	switch {
	case errors.Is(err, mongo.ErrStatusConflict):
		return ErrFriendRequestProcessed
	case errors.Is(err, mongo.ErrNotFound):
		return ErrFriendRequestNotFound
	}
	return err
}

// advanceFriendRequest 把仍为 pending 的申请推进到接收方通知的终态
func (s *negotiationServiceImpl) advanceFriendRequest(ctx context.Context, id primitive.ObjectID, status string) (bool, error) {
	err := s.transitionFriendRequest(ctx, id, status, s.now())
	switch {
	case errors.Is(err, ErrFriendRequestProcessed):
		return false, nil
	case errors.Is(err, ErrFriendRequestNotFound):
		log.WarnContext(ctx, "friend request missing for settled notification", "request_id", id.Hex())
		return false, nil
	case err != nil:
		return false, err
	}
	log.InfoContext(ctx, "friend request repaired", "request_id", id.Hex(), "status", status)
	return true, nil
}

// settleFriendReceiver 抢占接收方通知，缺失时补建一条终态通知。
// 已是同一终态时返回原记录且 claimed 为 false；被另一结果终结时返回 ErrFriendRequestProcessed
func (s *negotiationServiceImpl) settleFriendReceiver(ctx context.Context, req *mongo.FriendRequest, status, message string, at time.Time) (n *mongo.Notification, claimed bool, err error) {
	err = s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		n, err = s.notificationRepo.FindByFriendRequest(ctx, req.ID, req.To)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if n != nil {
		if n.Status == status {
			return n, false, nil
		}
		if n.Status != mongo.StatusPending {
			return nil, false, ErrFriendRequestProcessed
		}
		var updated *mongo.Notification
		err = s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
			updated, err = s.notificationRepo.TransitionStatus(ctx, n.ID, statusPatch(status, message, at))
			return err
		})
		if errors.Is(err, mongo.ErrStatusConflict) {
			return nil, false, ErrFriendRequestProcessed
		}
		if err != nil {
			return nil, false, err
		}
		return updated, true, nil
	}

	requestID := req.ID
	n = &mongo.Notification{
		UserID:          req.To,
		PartnerID:       req.From,
		Role:            mongo.RoleReceiver,
		Type:            mongo.TypeFriendRequest,
		FriendRequestID: &requestID,
		Message:         message,
		Status:          status,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	err = s.timeouts.inStore(ctx, func(ctx context.Context) error {
		return s.notificationRepo.Create(ctx, n)
	})
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// mirror 查找 own 的镜像并同步到同一状态，无镜像或已同步返回 (nil, nil)
func (s *negotiationServiceImpl) mirror(ctx context.Context, own *mongo.Notification, status, message string, at time.Time) (*mongo.Notification, error) {
	counterpart, err := s.findCounterpart(ctx, own)
	if err != nil {
		return nil, err
	}
	if counterpart == nil {
		log.InfoContext(ctx, "no counterpart notification to mirror", "user_id", own.UserID, "type", own.Type)
		return nil, nil
	}
	return s.settleRecord(ctx, counterpart, status, message, at)
}

func (s *negotiationServiceImpl) findCounterpart(ctx context.Context, n *mongo.Notification) (*mongo.Notification, error) {
	var counterpart *mongo.Notification
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		counterpart, err = s.resolver.FindCounterpart(ctx, n)
		return err
	})
	return counterpart, err
}

// settleRecord 将 pending 记录推进到 status。已处于该状态或已被其他结果终结时返回 (nil, nil)
func (s *negotiationServiceImpl) settleRecord(ctx context.Context, n *mongo.Notification, status, message string, at time.Time) (*mongo.Notification, error) {
	if n.Status == status {
		return nil, nil
	}
	var updated *mongo.Notification
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		updated, err = s.notificationRepo.TransitionStatus(ctx, n.ID, statusPatch(status, message, at))
		return err
	})
	if errors.Is(err, mongo.ErrStatusConflict) {
		log.WarnContext(ctx, "counterpart already settled with another status", "notification_id", n.ID.Hex(), "want", status)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *negotiationServiceImpl) ensureFriendship(ctx context.Context, from, to uint64, status string) error {
	if status != mongo.StatusAccepted {
		return nil
	}
	return s.directory.AddFriendship(ctx, from, to)
}

func (s *negotiationServiceImpl) displayNameOrFallback(ctx context.Context, userID uint64) string {
	name, err := s.directory.DisplayName(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.WarnContext(ctx, "display name lookup failed", "user_id", userID, "err", err)
		}
		return fallbackName(userID)
	}
	return name
}

func statusPatch(status, message string, at time.Time) mongo.NotificationPatch {
	isRead := false
	return mongo.NotificationPatch{
		Status:    &status,
		Message:   &message,
		IsRead:    &isRead,
		UpdatedAt: at,
	}
}

// receiverView 好友申请接收方视角的查询条件
func receiverView(req *mongo.FriendRequest) *mongo.Notification {
	requestID := req.ID
	return &mongo.Notification{
		UserID:          req.To,
		PartnerID:       req.From,
		Role:            mongo.RoleReceiver,
		Type:            mongo.TypeFriendRequest,
		FriendRequestID: &requestID,
	}
}

func isSettledReceiver(n *mongo.Notification) bool {
	return n.Role == mongo.RoleReceiver &&
		n.IsNegotiable() &&
		(n.Status == mongo.StatusAccepted || n.Status == mongo.StatusRejected)
}

func nameOr(names map[uint64]string, userID uint64) string {
	if name, ok := names[userID]; ok && name != "" {
		return name
	}
	return fallbackName(userID)
}
