package service

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/consts"
	"SetMatch/internal/pkg/mongo"
	"SetMatch/internal/pkg/realtime"
	"context"
	"time"

	"github.com/jinzhu/copier"
)

func toNotificationDTO(n *mongo.Notification, partnerName string) *dto.NotificationDTO {
	d := &dto.NotificationDTO{}
	_ = copier.Copy(d, n)
	d.ID = n.ID.Hex()
	d.PartnerName = partnerName
	if n.FriendRequestID != nil {
		d.FriendRequestID = n.FriendRequestID.Hex()
	}
	d.CreatedAt = n.CreatedAt.UTC().Format(time.RFC3339)
	d.UpdatedAt = n.UpdatedAt.UTC().Format(time.RFC3339)
	return d
}

// pushNotification 推送失败只会记录日志
func pushNotification(ctx context.Context, registry realtime.Registry, n *mongo.Notification) {
	if registry == nil || n == nil {
		return
	}
	registry.Push(ctx, n.UserID, &realtime.Event{
		Event: consts.RealtimeEventNotification,
		Data:  toNotificationDTO(n, ""),
	})
}

func toCards(cards []dto.CardDTO) []mongo.Card {
	res := make([]mongo.Card, 0, len(cards))
	for _, c := range cards {
		res = append(res, mongo.Card{
			CardID:   c.CardID,
			Quantity: c.Quantity,
			Name:     c.Name,
			Image:    c.Image,
		})
	}
	return res
}
