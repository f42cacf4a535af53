package service

import (
	"SetMatch/internal/pkg/mongo"
	"context"
)

// CounterpartResolver 查找同一次交互中另一方的通知
type CounterpartResolver interface {
	FindCounterpart(ctx context.Context, n *mongo.Notification) (*mongo.Notification, error)
}

type counterpartResolverImpl struct {
	notificationRepo mongo.NotificationRepo
}

func NewCounterpartResolver(notification mongo.NotificationRepo) CounterpartResolver {
	return &counterpartResolverImpl{notificationRepo: notification}
}

// FindCounterpart 未找到返回 (nil, nil)，调用方视为无需同步
func (s *counterpartResolverImpl) FindCounterpart(ctx context.Context, n *mongo.Notification) (*mongo.Notification, error) {
	q, ok := CounterpartQueryFor(n)
	if !ok {
		return nil, nil
	}
	return s.notificationRepo.FindCounterpart(ctx, q)
}

// CounterpartQueryFor 交换归属者与对方后按类型匹配，system 通知没有镜像
func CounterpartQueryFor(n *mongo.Notification) (mongo.CounterpartQuery, bool) {
	q := mongo.CounterpartQuery{
		Type:      n.Type,
		UserID:    n.PartnerID,
		PartnerID: n.UserID,
	}
	if n.PartnerID == 0 {
		return q, false
	}

	switch n.Type {
	case mongo.TypeFriendRequest:
		if n.FriendRequestID == nil {
			return q, false
		}
		q.FriendRequestID = n.FriendRequestID
	case mongo.TypeOffer:
		if n.InteractionID != "" {
			q.InteractionID = n.InteractionID
			return q, true
		}
		if n.Amount == nil || len(n.Cards) == 0 {
			return q, false
		}
		q.Amount = n.Amount
		q.CardIDs = n.CardIDs()
	default:
		return q, false
	}
	return q, true
}
