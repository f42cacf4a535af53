package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendRequest 好友申请，同一对用户同时只能有一条 pending
type FriendRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	From      uint64             `bson:"from" json:"from"`
	To        uint64             `bson:"to" json:"to"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
