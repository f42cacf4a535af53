package dto

type CardDTO struct {
	CardID   string `json:"cardId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
}

type CreateNotificationDTO struct {
	UserID          uint64    `json:"userId" binding:"required"`
	PartnerID       uint64    `json:"partnerId"`
	Role            string    `json:"role" binding:"required,oneof=sender receiver"`
	Type            string    `json:"type" binding:"required,oneof=offer friend_request system"`
	Message         string    `json:"message" binding:"required"`
	Cards           []CardDTO `json:"cards" binding:"omitempty,dive"`
	Amount          *float64  `json:"amount" binding:"omitempty,gt=0"`
	FriendRequestID string    `json:"friendRequestId"`
	InteractionID   string    `json:"interactionId"`
}

// NotificationDTO 通知列表项，同时也是实时推送事件的 data
type NotificationDTO struct {
	ID              string    `json:"id"`
	UserID          uint64    `json:"userId"`
	PartnerID       uint64    `json:"partnerId"`
	PartnerName     string    `json:"partnerName,omitempty"`
	Role            string    `json:"role"`
	Type            string    `json:"type"`
	Status          string    `json:"status,omitempty"`
	Message         string    `json:"message"`
	Cards           []CardDTO `json:"cards,omitempty"`
	Amount          *float64  `json:"amount,omitempty"`
	FriendRequestID string    `json:"friendRequestId,omitempty"`
	InteractionID   string    `json:"interactionId,omitempty"`
	IsRead          bool      `json:"isRead"`
	CreatedAt       string    `json:"createdAt"`
	UpdatedAt       string    `json:"updatedAt"`
}

type RespondDTO struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
	ByName string `json:"byName" binding:"max=50"`
}

type RespondResultDTO struct {
	Status string `json:"status"`
}

type UnreadCountDTO struct {
	UnreadCount int64 `json:"unreadCount"`
}

// MirrorRepairTask 镜像通知补偿任务 (Kafka 消息体)
type MirrorRepairTask struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	Action         string `json:"action"`
	ActorName      string `json:"actorName,omitempty"`
}
