package service

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/model"
	"SetMatch/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DisplayNameCache 昵称缓存，未命中返回 ok=false
type DisplayNameCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// UserDirectory 用户目录：昵称查询与好友关系
type UserDirectory interface {
	DisplayName(ctx context.Context, userID uint64) (string, error)
	DisplayNames(ctx context.Context, userIDs []uint64) (map[uint64]string, error)
	AddFriendship(ctx context.Context, a, b uint64) error
	IsFriend(ctx context.Context, userID, friendID uint64) (bool, error)
	ListFriends(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.FriendDTO, error)
}

type userDirectoryImpl struct {
	userRepo       repository.UserRepo
	friendshipRepo repository.FriendshipRepo
	cache          DisplayNameCache
	group          singleflight.Group
	timeouts       Timeouts
}

func NewUserDirectory(user repository.UserRepo, friendship repository.FriendshipRepo, cache DisplayNameCache, timeouts Timeouts) UserDirectory {
	return &userDirectoryImpl{
		userRepo:       user,
		friendshipRepo: friendship,
		cache:          cache,
		timeouts:       timeouts,
	}
}

// DisplayName 获取单个用户昵称，用户不存在返回 ErrUserNotFound
func (s *userDirectoryImpl) DisplayName(ctx context.Context, userID uint64) (string, error) {
	names, err := s.DisplayNames(ctx, []uint64{userID})
	if err != nil {
		return "", err
	}
	name, ok := names[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return name, nil
}

// DisplayNames 批量获取昵称，不存在的用户不出现在结果中
func (s *userDirectoryImpl) DisplayNames(ctx context.Context, userIDs []uint64) (map[uint64]string, error) {
	names := make(map[uint64]string, len(userIDs))
	missing := make([]uint64, 0, len(userIDs))
	for _, id := range dedupeIDs(userIDs) {
		if s.cache != nil {
			name, ok, err := s.cache.Get(ctx, strconv.FormatUint(id, 10))
			if err != nil {
				log.WarnContext(ctx, "display name cache get failed", "user_id", id, "err", err)
			} else if ok {
				names[id] = name
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return names, nil
	}

	// 相同的批次合并为一次查询。共享的查询不随单个调用方取消，但保留其截止时间
	v, err, _ := s.group.Do(batchKey(missing), func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithDeadline(loadCtx, deadline)
			defer cancel()
		}
		return s.loadNames(loadCtx, missing)
	})
	if err != nil {
		return nil, err
	}
	for id, name := range v.(map[uint64]string) {
		names[id] = name
	}
	return names, nil
}

func (s *userDirectoryImpl) loadNames(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	loaded := make(map[uint64]string, len(ids))
	err := s.timeouts.inDirectory(ctx, func(ctx context.Context) error {
		details, err := s.userRepo.GetUserSimpleInfoByIds(ctx, ids)
		if err != nil {
			return err
		}
		for _, d := range details {
			loaded[d.UserID] = d.Nickname
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		for id, name := range loaded {
			if err = s.cache.Set(ctx, strconv.FormatUint(id, 10), name); err != nil {
				log.WarnContext(ctx, "display name cache set failed", "user_id", id, "err", err)
			}
		}
	}
	return loaded, nil
}

// AddFriendship 互相添加好友，已存在时无副作用
func (s *userDirectoryImpl) AddFriendship(ctx context.Context, a, b uint64) error {
	if a == 0 || b == 0 || a == b {
		return ErrParamInvalid
	}
	return s.timeouts.inDirectory(ctx, func(ctx context.Context) error {
		return s.friendshipRepo.AddFriendship(ctx, a, b)
	})
}

func (s *userDirectoryImpl) IsFriend(ctx context.Context, userID, friendID uint64) (bool, error) {
	var ok bool
	err := s.timeouts.inDirectory(ctx, func(ctx context.Context) (err error) {
		ok, err = s.friendshipRepo.IsFriend(ctx, userID, friendID)
		return err
	})
	return ok, err
}

// ListFriends 获取好友列表并补全昵称
func (s *userDirectoryImpl) ListFriends(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.FriendDTO, error) {
	limit := pageSize
	offset := (page - 1) * pageSize

	var friendships []*model.Friendship
	err := s.timeouts.inDirectory(ctx, func(ctx context.Context) (err error) {
		friendships, err = s.friendshipRepo.ListFriends(ctx, userID, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.FriendID)
	}
	details := make(map[uint64]string, len(ids))
	avatars := make(map[uint64]string, len(ids))
	err = s.timeouts.inDirectory(ctx, func(ctx context.Context) error {
		list, err := s.userRepo.GetUserSimpleInfoByIds(ctx, ids)
		if err != nil {
			return err
		}
		for _, d := range list {
			details[d.UserID] = d.Nickname
			avatars[d.UserID] = d.AvatarURL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.FriendDTO, 0, len(friendships))
	for _, f := range friendships {
		nickname, ok := details[f.FriendID]
		if !ok {
			// 已注销的账号不展示
			continue
		}
		res = append(res, &dto.FriendDTO{
			UserID:    f.FriendID,
			Nickname:  nickname,
			AvatarURL: avatars[f.FriendID],
			Since:     f.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return res, nil
}

func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	res := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}

func batchKey(ids []uint64) string {
	sorted := append([]uint64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, 0, len(sorted))
	for _, id := range sorted {
		parts = append(parts, strconv.FormatUint(id, 10))
	}
	return strings.Join(parts, ",")
}

// fallbackName 用户目录中缺失时的展示名
func fallbackName(userID uint64) string {
	return fmt.Sprintf("用户%d", userID)
}
