package service

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/mongo"
	"SetMatch/internal/pkg/realtime"
	"SetMatch/internal/pkg/util"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type OfferService interface {
	SubmitOffer(ctx context.Context, from uint64, req *dto.SubmitOfferDTO) (*dto.OfferResultDTO, error)
	SaveHistory(ctx context.Context, sellerID uint64, req *dto.SaveOfferHistoryDTO) (*dto.OfferHistoryDTO, error)
	ListHistory(ctx context.Context, sellerID uint64, page, pageSize int) ([]*dto.OfferHistoryDTO, error)
}

type offerServiceImpl struct {
	notificationRepo mongo.NotificationRepo
	offerRepo        mongo.OfferRepo
	directory        UserDirectory
	registry         realtime.Registry
	writer           pairedWriter
	timeouts         Timeouts
	now              func() time.Time
}

func NewOfferService(
	notification mongo.NotificationRepo,
	offer mongo.OfferRepo,
	directory UserDirectory,
	registry realtime.Registry,
	tx mongo.Transactor,
	opts NegotiationOptions,
) OfferService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &offerServiceImpl{
		notificationRepo: notification,
		offerRepo:        offer,
		directory:        directory,
		registry:         registry,
		writer:           newPairedWriter(tx, opts.PairedUpdate),
		timeouts:         opts.Timeouts,
		now:              now,
	}
}

// SubmitOffer 向对方发起报价：先建接收方通知，再建发起方通知，两条共享 interaction_id
func (s *offerServiceImpl) SubmitOffer(ctx context.Context, from uint64, req *dto.SubmitOfferDTO) (*dto.OfferResultDTO, error) {
	if from == 0 || req.To == 0 {
		return nil, ErrParamInvalid
	}
	if from == req.To || !validOfferCards(req.Cards) || !(req.Amount > 0) {
		return nil, ErrOfferInvalid
	}

	names, err := s.directory.DisplayNames(ctx, []uint64{from, req.To})
	if err != nil {
		return nil, err
	}
	fromName, ok := names[from]
	if !ok {
		return nil, ErrUserNotFound
	}
	toName, ok := names[req.To]
	if !ok {
		return nil, ErrUserNotFound
	}

	interactionID := uuid.NewString()
	now := s.now()
	newRecord := func(owner, partner uint64, role, message string) *mongo.Notification {
		amount := req.Amount
		return &mongo.Notification{
			UserID:        owner,
			PartnerID:     partner,
			Role:          role,
			Type:          mongo.TypeOffer,
			InteractionID: interactionID,
			Message:       message,
			Cards:         toCards(req.Cards),
			Amount:        &amount,
			Status:        mongo.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	receiver := newRecord(req.To, from, mongo.RoleReceiver, createdMessage(mongo.TypeOffer, mongo.RoleReceiver, fromName))
	sender := newRecord(from, req.To, mongo.RoleSender, createdMessage(mongo.TypeOffer, mongo.RoleSender, toName))

	err = s.writer.run(ctx, func(ctx context.Context) error {
		return createPair(ctx, s.timeouts, s.notificationRepo, receiver, sender)
	})
	if err != nil {
		return nil, err
	}

	pushNotification(ctx, s.registry, receiver)
	pushNotification(ctx, s.registry, sender)
	return &dto.OfferResultDTO{Accepted: true, InteractionID: interactionID}, nil
}

// SaveHistory 卖家记录一次成交报价
func (s *offerServiceImpl) SaveHistory(ctx context.Context, sellerID uint64, req *dto.SaveOfferHistoryDTO) (*dto.OfferHistoryDTO, error) {
	if sellerID == 0 || req.BuyerID == 0 || sellerID == req.BuyerID {
		return nil, ErrParamInvalid
	}
	switch req.Mode {
	case mongo.OfferModeTrend, mongo.OfferModeLow, mongo.OfferModeManual:
	default:
		return nil, ErrParamInvalid
	}
	if len(req.Cards) == 0 || !(req.Amount > 0) {
		return nil, ErrOfferInvalid
	}
	if err := util.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}

	buyerName := req.BuyerName
	if buyerName == "" {
		name, err := s.directory.DisplayName(ctx, req.BuyerID)
		if err != nil {
			return nil, err
		}
		buyerName = name
	}

	record := &mongo.OfferRecord{
		SellerID:  sellerID,
		BuyerID:   req.BuyerID,
		BuyerName: buyerName,
		Amount:    req.Amount,
		Mode:      req.Mode,
		Date:      s.now(),
	}
	_ = copier.Copy(&record.Cards, &req.Cards)

	err := s.timeouts.inStore(ctx, func(ctx context.Context) error {
		return s.offerRepo.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return toOfferHistoryDTO(record), nil
}

// ListHistory 卖家的报价历史，按时间倒序
func (s *offerServiceImpl) ListHistory(ctx context.Context, sellerID uint64, page, pageSize int) ([]*dto.OfferHistoryDTO, error) {
	limit := int64(pageSize)
	offset := int64((page - 1) * pageSize)

	var list []*mongo.OfferRecord
	err := s.timeouts.inStore(ctx, func(ctx context.Context) (err error) {
		list, err = s.offerRepo.ListBySeller(ctx, sellerID, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.OfferHistoryDTO, 0, len(list))
	for _, r := range list {
		res = append(res, toOfferHistoryDTO(r))
	}
	return res, nil
}

func toOfferHistoryDTO(r *mongo.OfferRecord) *dto.OfferHistoryDTO {
	d := &dto.OfferHistoryDTO{}
	_ = copier.Copy(d, r)
	d.ID = r.ID.Hex()
	d.Date = r.Date.UTC().Format(time.RFC3339)
	return d
}

func validOfferCards(cards []dto.CardDTO) bool {
	if len(cards) == 0 {
		return false
	}
	for _, c := range cards {
		if c.CardID == "" || c.Quantity <= 0 {
			return false
		}
	}
	return true
}

// createPair 按接收方、发起方的顺序写入一对通知
func createPair(ctx context.Context, timeouts Timeouts, repo mongo.NotificationRepo, receiver, sender *mongo.Notification) error {
	for _, n := range []*mongo.Notification{receiver, sender} {
		err := timeouts.inStore(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, n)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
