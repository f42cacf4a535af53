package service

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/mongo"
	"SetMatch/internal/pkg/realtime"
	"context"
	"errors"
	log "log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	Create(ctx context.Context, callerID uint64, req *dto.CreateNotificationDTO) (*dto.NotificationDTO, error)
	List(ctx context.Context, userID uint64, unreadOnly bool) ([]*dto.NotificationDTO, error)
	MarkRead(ctx context.Context, userID uint64, notificationID string) error
	MarkAllRead(ctx context.Context, userID uint64) error
	GetUnreadCount(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error)
}

type notificationServiceImpl struct {
	notificationRepo mongo.NotificationRepo
	directory        UserDirectory
	registry         realtime.Registry
	timeouts         Timeouts
}

func NewNotificationService(notification mongo.NotificationRepo, directory UserDirectory, registry realtime.Registry, timeouts Timeouts) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notification,
		directory:        directory,
		registry:         registry,
		timeouts:         timeouts,
	}
}

// Create 直接创建一条通知，调用者只能给自己创建
func (s *notificationServiceImpl) Create(ctx context.Context, callerID uint64, req *dto.CreateNotificationDTO) (*dto.NotificationDTO, error) {
	if req.UserID == 0 {
		return nil, ErrParamInvalid
	}
	if req.UserID != callerID {
		return nil, ErrForbidden
	}

	n := &mongo.Notification{
		UserID:        req.UserID,
		PartnerID:     req.PartnerID,
		Role:          req.Role,
		Type:          req.Type,
		InteractionID: req.InteractionID,
		Message:       req.Message,
		Amount:        req.Amount,
	}
	if len(req.Cards) > 0 {
		n.Cards = toCards(req.Cards)
	}
	if req.FriendRequestID != "" {
		requestID, err := primitive.ObjectIDFromHex(req.FriendRequestID)
		if err != nil {
			return nil, ErrParamInvalid
		}
		n.FriendRequestID = &requestID
	}

	err := s.timeouts.inStore(ctx, func(ctx context.Context) error {
		return s.notificationRepo.Create(ctx, n)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrInvalidDocument) {
			return nil, ErrParamInvalid
		}
		return nil, err
	}

	pushNotification(ctx, s.registry, n)
	return toNotificationDTO(n, ""), nil
}

// List 获取通知列表 (按最后变更时间倒序) 并补全对方昵称
func (s *notificationServiceImpl) List(ctx context.Context, userID uint64, unreadOnly bool) ([]*dto.NotificationDTO, error) {
	var list []*mongo.Notification
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		list, err = s.notificationRepo.List(ctx, userID, unreadOnly)
		return err
	})
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]uint64, 0, len(list))
	for _, n := range list {
		partnerIDs = append(partnerIDs, n.PartnerID)
	}
	// 昵称只用于展示，查询失败时照常返回列表
	names, err := s.directory.DisplayNames(ctx, partnerIDs)
	if err != nil {
		log.WarnContext(ctx, "partner names unavailable", "user_id", userID, "err", err)
		names = map[uint64]string{}
	}

	res := make([]*dto.NotificationDTO, 0, len(list))
	for _, n := range list {
		res = append(res, toNotificationDTO(n, names[n.PartnerID]))
	}
	return res, nil
}

// MarkRead 标记单条已读
func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID uint64, notificationID string) error {
	id, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return ErrParamInvalid
	}

	var n *mongo.Notification
	err = s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		n, err = s.notificationRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if n.UserID != userID {
		return ErrForbidden
	}
	if n.IsRead {
		return nil
	}

	return s.timeouts.inStore(ctx, func(ctx context.Context) error {
		return s.notificationRepo.MarkAsRead(ctx, userID, id)
	})
}

// MarkAllRead 一键已读
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uint64) error {
	return s.timeouts.inStore(ctx, func(ctx context.Context) error {
		return s.notificationRepo.MarkAllAsRead(ctx, userID)
	})
}

// GetUnreadCount 获取未读数
func (s *notificationServiceImpl) GetUnreadCount(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error) {
	var count int64
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		count, err = s.notificationRepo.GetUnreadCount(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountDTO{UnreadCount: count}, nil
}
