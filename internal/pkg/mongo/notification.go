package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 通知角色
const (
	RoleSender   = "sender"
	RoleReceiver = "receiver"
)

// 通知类型
const (
	TypeOffer         = "offer"
	TypeFriendRequest = "friend_request"
	TypeSystem        = "system"
)

// 协商状态 (通知与好友申请共用)
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Notification 一方参与者视角下的一次交互记录，一次报价 / 好友申请对应两条
type Notification struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          uint64              `bson:"user_id" json:"userId"`                              // 通知归属者
	PartnerID       uint64              `bson:"partner_id,omitempty" json:"partnerId"`              // 交互的另一方
	Role            string              `bson:"role" json:"role"`                                   // sender | receiver
	Type            string              `bson:"type" json:"type"`                                   // offer | friend_request | system
	FriendRequestID *primitive.ObjectID `bson:"friend_request_id,omitempty" json:"friendRequestId"` // 好友申请关联键
	InteractionID   string              `bson:"interaction_id,omitempty" json:"interactionId"`      // 报价关联键
	Message         string              `bson:"message" json:"message"`                             // 展示文案，状态变化时重写
	Cards           []Card              `bson:"cards,omitempty" json:"cards"`                       // 报价卡牌
	Amount          *float64            `bson:"amount,omitempty" json:"amount"`                     // 报价金额
	Status          string              `bson:"status,omitempty" json:"status"`                     // pending | accepted | rejected
	IsRead          bool                `bson:"is_read" json:"isRead"`                              // 是否已读
	CreatedAt       time.Time           `bson:"created_at" json:"createdAt"`                        // 创建时间，不可变
	UpdatedAt       time.Time           `bson:"updated_at" json:"updatedAt"`                        // 最后一次变更时间，列表按此倒序
}

// Card 报价中的一张卡牌
type Card struct {
	CardID   string `bson:"card_id" json:"cardId"`
	Quantity int    `bson:"quantity" json:"quantity"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Image    string `bson:"image,omitempty" json:"image,omitempty"`
}

// CardIDs 返回卡牌 ID 列表
func (n *Notification) CardIDs() []string {
	ids := make([]string, 0, len(n.Cards))
	for _, c := range n.Cards {
		ids = append(ids, c.CardID)
	}
	return ids
}

// IsNegotiable 是否属于需要协商的交互类型
func (n *Notification) IsNegotiable() bool {
	return n.Type == TypeOffer || n.Type == TypeFriendRequest
}

func (n *Notification) validate() error {
	if n.UserID == 0 || n.Message == "" {
		return ErrInvalidDocument
	}
	if n.Role != RoleSender && n.Role != RoleReceiver {
		return ErrInvalidDocument
	}
	switch n.Type {
	case TypeSystem:
	case TypeOffer:
		if len(n.Cards) == 0 || n.Amount == nil {
			return ErrInvalidDocument
		}
	case TypeFriendRequest:
		if n.FriendRequestID == nil {
			return ErrInvalidDocument
		}
	default:
		return ErrInvalidDocument
	}
	return nil
}

// NotificationPatch 原地更新的字段，nil 表示不变
type NotificationPatch struct {
	Status    *string
	Message   *string
	IsRead    *bool
	UpdatedAt time.Time
}

func (p NotificationPatch) toSet() bson.M {
	set := bson.M{"updated_at": p.UpdatedAt}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Message != nil {
		set["message"] = *p.Message
	}
	if p.IsRead != nil {
		set["is_read"] = *p.IsRead
	}
	return set
}

// Apply 将补丁应用到内存对象 (供内存实现与测试使用)
func (p NotificationPatch) Apply(n *Notification) {
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.Message != nil {
		n.Message = *p.Message
	}
	if p.IsRead != nil {
		n.IsRead = *p.IsRead
	}
	n.UpdatedAt = p.UpdatedAt
}

// CounterpartQuery 查找镜像通知的条件
type CounterpartQuery struct {
	Type            string
	UserID          uint64
	PartnerID       uint64
	FriendRequestID *primitive.ObjectID
	InteractionID   string
	Amount          *float64
	CardIDs         []string
}

// Filter 转换为 Mongo 过滤条件
func (q CounterpartQuery) Filter() bson.M {
	filter := bson.M{
		"type":       q.Type,
		"user_id":    q.UserID,
		"partner_id": q.PartnerID,
	}
	switch {
	case q.FriendRequestID != nil:
		filter["friend_request_id"] = *q.FriendRequestID
	case q.InteractionID != "":
		filter["interaction_id"] = q.InteractionID
	default:
		// 历史报价没有 interaction_id：金额相同且至少共享一张卡牌
		filter["amount"] = q.Amount
		filter["cards.card_id"] = bson.M{"$in": q.CardIDs}
	}
	return filter
}

// Matches 与 Filter 语义一致的内存匹配
func (q CounterpartQuery) Matches(n *Notification) bool {
	if n.Type != q.Type || n.UserID != q.UserID || n.PartnerID != q.PartnerID {
		return false
	}
	switch {
	case q.FriendRequestID != nil:
		return n.FriendRequestID != nil && *n.FriendRequestID == *q.FriendRequestID
	case q.InteractionID != "":
		return n.InteractionID == q.InteractionID
	}
	if q.Amount == nil || n.Amount == nil || *q.Amount != *n.Amount {
		return false
	}
	for _, id := range n.CardIDs() {
		for _, want := range q.CardIDs {
			if id == want {
				return true
			}
		}
	}
	return false
}
