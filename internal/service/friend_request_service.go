package service

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/mongo"
	"SetMatch/internal/pkg/realtime"
	"context"
	"errors"
	"time"
)

type FriendRequestService interface {
	Submit(ctx context.Context, from, to uint64) (*dto.FriendRequestDTO, error)
	Respond(ctx context.Context, callerID uint64, requestID string, action string) (*dto.RespondResultDTO, error)
	ListSent(ctx context.Context, userID uint64) ([]*dto.FriendRequestDTO, error)
	ListReceived(ctx context.Context, userID uint64) ([]*dto.FriendRequestDTO, error)
	ListFriends(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.FriendDTO, error)
}

type friendRequestServiceImpl struct {
	friendRequestRepo mongo.FriendRequestRepo
	notificationRepo  mongo.NotificationRepo
	negotiation       NegotiationService
	directory         UserDirectory
	registry          realtime.Registry
	writer            pairedWriter
	timeouts          Timeouts
	now               func() time.Time
}

func NewFriendRequestService(
	friendRequest mongo.FriendRequestRepo,
	notification mongo.NotificationRepo,
	negotiation NegotiationService,
	directory UserDirectory,
	registry realtime.Registry,
	tx mongo.Transactor,
	opts NegotiationOptions,
) FriendRequestService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &friendRequestServiceImpl{
		friendRequestRepo: friendRequest,
		notificationRepo:  notification,
		negotiation:       negotiation,
		directory:         directory,
		registry:          registry,
		writer:            newPairedWriter(tx, opts.PairedUpdate),
		timeouts:          opts.Timeouts,
		now:               now,
	}
}

// Submit 发送好友申请，同一对用户之间只能存在一条 pending 申请
func (s *friendRequestServiceImpl) Submit(ctx context.Context, from, to uint64) (*dto.FriendRequestDTO, error) {
	if from == 0 || to == 0 {
		return nil, ErrParamInvalid
	}
	if from == to {
		return nil, ErrFriendRequestSelf
	}

	names, err := s.directory.DisplayNames(ctx, []uint64{from, to})
	if err != nil {
		return nil, err
	}
	fromName, ok := names[from]
	if !ok {
		return nil, ErrUserNotFound
	}
	toName, ok := names[to]
	if !ok {
		return nil, ErrUserNotFound
	}

	friend, err := s.directory.IsFriend(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if friend {
		return nil, ErrFriendAlready
	}

	// 任一方向存在 pending 申请都视为重复
	for _, pair := range [][2]uint64{{from, to}, {to, from}} {
		var pending *mongo.FriendRequest
		err = s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
			pending, err = s.friendRequestRepo.FindPending(ctx, pair[0], pair[1])
			return err
		})
		if err != nil {
			return nil, err
		}
		if pending != nil {
			return nil, ErrFriendRequestExist
		}
	}

	now := s.now()
	req := &mongo.FriendRequest{From: from, To: to, CreatedAt: now, UpdatedAt: now}
	var receiver, sender *mongo.Notification
	err = s.writer.run(ctx, func(ctx context.Context) error {
		err := s.timeouts.inStore(ctx, func(ctx context.Context) error {
			return s.friendRequestRepo.Create(ctx, req)
		})
		if err != nil {
			return err
		}

		requestID := req.ID
		newRecord := func(owner, partner uint64, role, message string) *mongo.Notification {
			return &mongo.Notification{
				UserID:          owner,
				PartnerID:       partner,
				Role:            role,
				Type:            mongo.TypeFriendRequest,
				FriendRequestID: &requestID,
				Message:         message,
				Status:          mongo.StatusPending,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
		}
		receiver = newRecord(to, from, mongo.RoleReceiver, createdMessage(mongo.TypeFriendRequest, mongo.RoleReceiver, fromName))
		sender = newRecord(from, to, mongo.RoleSender, createdMessage(mongo.TypeFriendRequest, mongo.RoleSender, toName))
		return createPair(ctx, s.timeouts, s.notificationRepo, receiver, sender)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrDuplicate) {
			return nil, ErrFriendRequestExist
		}
		return nil, err
	}

	pushNotification(ctx, s.registry, receiver)
	pushNotification(ctx, s.registry, sender)
	return toFriendRequestDTO(req, fromName, toName), nil
}

// Respond 接受 / 拒绝好友申请
func (s *friendRequestServiceImpl) Respond(ctx context.Context, callerID uint64, requestID string, action string) (*dto.RespondResultDTO, error) {
	return s.negotiation.RespondFriendRequest(ctx, callerID, requestID, action)
}

// ListSent 我发出的待处理申请
func (s *friendRequestServiceImpl) ListSent(ctx context.Context, userID uint64) ([]*dto.FriendRequestDTO, error) {
	var list []*mongo.FriendRequest
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		list, err = s.friendRequestRepo.ListPendingFrom(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.withNames(ctx, list)
}

// ListReceived 我收到的待处理申请
func (s *friendRequestServiceImpl) ListReceived(ctx context.Context, userID uint64) ([]*dto.FriendRequestDTO, error) {
	var list []*mongo.FriendRequest
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		list, err = s.friendRequestRepo.ListPendingTo(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.withNames(ctx, list)
}

func (s *friendRequestServiceImpl) ListFriends(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.FriendDTO, error) {
	return s.directory.ListFriends(ctx, userID, page, pageSize)
}

func (s *friendRequestServiceImpl) withNames(ctx context.Context, list []*mongo.FriendRequest) ([]*dto.FriendRequestDTO, error) {
	ids := make([]uint64, 0, len(list)*2)
	for _, r := range list {
		ids = append(ids, r.From, r.To)
	}
	names, err := s.directory.DisplayNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.FriendRequestDTO, 0, len(list))
	for _, r := range list {
		res = append(res, toFriendRequestDTO(r, names[r.From], names[r.To]))
	}
	return res, nil
}

func toFriendRequestDTO(r *mongo.FriendRequest, fromName, toName string) *dto.FriendRequestDTO {
	return &dto.FriendRequestDTO{
		ID:        r.ID.Hex(),
		From:      r.From,
		FromName:  fromName,
		To:        r.To,
		ToName:    toName,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
