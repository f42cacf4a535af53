package service

import (
	"SetMatch/internal/model"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	mu      sync.Mutex
	details map[uint64]*model.UserDetail
	calls   int
	err     error
	block   bool
}

func (r *stubUserRepo) GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*model.UserDetail, error) {
	r.mu.Lock()
	r.calls++
	block := r.block
	r.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var res []*model.UserDetail
	for _, id := range ids {
		if d, ok := r.details[id]; ok {
			res = append(res, d)
		}
	}
	return res, nil
}

type stubFriendshipRepo struct {
	rows []*model.Friendship
}

func (r *stubFriendshipRepo) AddFriendship(_ context.Context, a, b uint64) error {
	for _, row := range r.rows {
		if row.UserID == a && row.FriendID == b {
			return nil
		}
	}
	now := time.Now()
	r.rows = append(r.rows,
		&model.Friendship{UserID: a, FriendID: b, CreatedAt: now},
		&model.Friendship{UserID: b, FriendID: a, CreatedAt: now})
	return nil
}

func (r *stubFriendshipRepo) ListFriends(_ context.Context, userID uint64, _, _ int) ([]*model.Friendship, error) {
	var res []*model.Friendship
	for _, row := range r.rows {
		if row.UserID == userID {
			res = append(res, row)
		}
	}
	return res, nil
}

func (r *stubFriendshipRepo) IsFriend(_ context.Context, userID, friendID uint64) (bool, error) {
	for _, row := range r.rows {
		if row.UserID == userID && row.FriendID == friendID {
			return true, nil
		}
	}
	return false, nil
}

type mapCache struct {
	mu     sync.Mutex
	values map[string]string
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func newTestDirectory() (UserDirectory, *stubUserRepo, *stubFriendshipRepo) {
	users := &stubUserRepo{details: map[uint64]*model.UserDetail{
		1: {UserID: 1, Nickname: "Ana", AvatarURL: "ana.png"},
		2: {UserID: 2, Nickname: "Bruno"},
	}}
	friends := &stubFriendshipRepo{}
	dir := NewUserDirectory(users, friends, &mapCache{values: map[string]string{}}, Timeouts{})
	return dir, users, friends
}

func TestUserDirectory_DisplayNamesUsesCache(t *testing.T) {
	dir, users, _ := newTestDirectory()
	ctx := context.Background()

	names, err := dir.DisplayNames(ctx, []uint64{1, 2, 2, 7, 0})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{1: "Ana", 2: "Bruno"}, names)
	assert.Equal(t, 1, users.calls)

	names, err = dir.DisplayNames(ctx, []uint64{1, 2})
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Equal(t, 1, users.calls)

	_, err = dir.DisplayName(ctx, 7)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserDirectory_TimeoutIsUnavailable(t *testing.T) {
	dir, users, _ := newTestDirectory()
	users.err = context.DeadlineExceeded

	_, err := dir.DisplayName(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)

	users.err = errors.New("syntax error")
	_, err = dir.DisplayName(context.Background(), 1)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestUserDirectory_LookupKeepsCallerDeadline(t *testing.T) {
	dir, users, _ := newTestDirectory()
	users.block = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := dir.DisplayNames(ctx, []uint64{1, 2})
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrUnavailable)
	case <-time.After(2 * time.Second):
		t.Fatal("lookup outlived the caller deadline")
	}
}

func TestUserDirectory_FriendshipIsIdempotent(t *testing.T) {
	dir, _, friends := newTestDirectory()
	ctx := context.Background()

	require.NoError(t, dir.AddFriendship(ctx, 1, 2))
	require.NoError(t, dir.AddFriendship(ctx, 2, 1))
	assert.Len(t, friends.rows, 2)
	assert.ErrorIs(t, dir.AddFriendship(ctx, 1, 1), ErrParamInvalid)

	list, err := dir.ListFriends(ctx, 1, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint64(2), list[0].UserID)
	assert.Equal(t, "Bruno", list[0].Nickname)

	ok, err := dir.IsFriend(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
