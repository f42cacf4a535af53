package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OfferRepo interface {
	Create(ctx context.Context, offer *OfferRecord) error
	ListBySeller(ctx context.Context, sellerID uint64, limit, offset int64) ([]*OfferRecord, error)
}

type offerRepoImpl struct {
	col *mongo.Collection
}

func NewOfferRepo(db *mongo.Database) OfferRepo {
	return &offerRepoImpl{
		col: db.Collection(OfferCollection),
	}
}

func (s *offerRepoImpl) Create(ctx context.Context, offer *OfferRecord) error {
	if offer.Date.IsZero() {
		offer.Date = time.Now()
	}
	res, err := s.col.InsertOne(ctx, offer)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		offer.ID = oid
	}
	return nil
}

// ListBySeller 卖家报价历史，按日期倒序
func (s *offerRepoImpl) ListBySeller(ctx context.Context, sellerID uint64, limit, offset int64) ([]*OfferRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, bson.M{"seller_id": sellerID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*OfferRecord, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
