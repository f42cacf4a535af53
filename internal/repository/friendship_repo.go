package repository

import (
	"SetMatch/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FriendshipRepo interface {
	AddFriendship(ctx context.Context, a, b uint64) error
	ListFriends(ctx context.Context, userID uint64, limit, offset int) ([]*model.Friendship, error)
	IsFriend(ctx context.Context, userID, friendID uint64) (bool, error)
}

type FriendshipRepoImpl struct {
	db *gorm.DB
}

func NewFriendshipRepo(db *gorm.DB) FriendshipRepo {
	return &FriendshipRepoImpl{db: db}
}

// AddFriendship 双向写入好友关系，已存在的行忽略
func (s *FriendshipRepoImpl) AddFriendship(ctx context.Context, a, b uint64) error {
	now := time.Now()
	rows := []*model.Friendship{
		{UserID: a, FriendID: b, CreatedAt: now},
		{UserID: b, FriendID: a, CreatedAt: now},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			DoNothing: true,
		}).Create(&rows).Error
	})
}

// ListFriends 获取好友列表
func (s *FriendshipRepoImpl) ListFriends(ctx context.Context, userID uint64, limit, offset int) ([]*model.Friendship, error) {
	var friends []*model.Friendship
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&friends)
	if result.Error != nil {
		return nil, result.Error
	}
	return friends, nil
}

func (s *FriendshipRepoImpl) IsFriend(ctx context.Context, userID, friendID uint64) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}
