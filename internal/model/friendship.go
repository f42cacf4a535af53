package model

import "time"

// Friendship 好友关系按双向两行存储，(user_id, friend_id) 唯一
type Friendship struct {
	UserID    uint64    `gorm:"primaryKey" json:"userId"`
	FriendID  uint64    `gorm:"primaryKey;index:idx_friend_id" json:"friendId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Friendship) TableName() string {
	return "friendships"
}
