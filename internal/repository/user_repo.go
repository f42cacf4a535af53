package repository

import (
	"SetMatch/internal/model"
	"context"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

// GetUserSimpleInfoByIds 批量获取昵称与头像，已注销的账号不返回
func (s *UserRepoImpl) GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error) {
	details := make([]*model.UserDetail, 0, len(ids))
	if len(ids) == 0 {
		return details, nil
	}

	var users []*model.User
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Preload("UserDetail").
		Where("id IN ? AND is_delete = ?", ids, false).
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	for _, u := range users {
		if u.UserDetail.UserID == 0 {
			continue
		}
		detail := u.UserDetail
		details = append(details, &detail)
	}
	return details, nil
}
