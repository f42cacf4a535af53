package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FriendRequestRepo interface {
	Create(ctx context.Context, req *FriendRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*FriendRequest, error)
	FindPending(ctx context.Context, from, to uint64) (*FriendRequest, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) (*FriendRequest, error)
	ListPendingFrom(ctx context.Context, from uint64) ([]*FriendRequest, error)
	ListPendingTo(ctx context.Context, to uint64) ([]*FriendRequest, error)
}

type friendRequestRepoImpl struct {
	col *mongo.Collection
}

func NewFriendRequestRepo(db *mongo.Database) FriendRequestRepo {
	return &friendRequestRepoImpl{
		col: db.Collection(FriendRequestCollection),
	}
}

// Create 创建 pending 申请，命中唯一索引时返回 ErrDuplicate
func (s *friendRequestRepoImpl) Create(ctx context.Context, req *FriendRequest) error {
	if req.From == 0 || req.To == 0 {
		return ErrInvalidDocument
	}
	req.Status = StatusPending
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}

	res, err := s.col.InsertOne(ctx, req)
	if err != nil {
		return translateWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid
	}
	return nil
}

func (s *friendRequestRepoImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*FriendRequest, error) {
	var req FriendRequest
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// FindPending 查找 from -> to 的 pending 申请，不存在返回 (nil, nil)
func (s *friendRequestRepoImpl) FindPending(ctx context.Context, from, to uint64) (*FriendRequest, error) {
	var req FriendRequest
	err := s.col.FindOne(ctx, bson.M{"from": from, "to": to, "status": StatusPending}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// TransitionStatus pending -> status 的 CAS
func (s *friendRequestRepoImpl) TransitionStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) (*FriendRequest, error) {
	filter := bson.M{"_id": id, "status": StatusPending}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req FriendRequest
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusConflict
}

// ListPendingFrom 我发出的待处理申请
func (s *friendRequestRepoImpl) ListPendingFrom(ctx context.Context, from uint64) ([]*FriendRequest, error) {
	return s.list(ctx, bson.M{"from": from, "status": StatusPending})
}

// ListPendingTo 我收到的待处理申请
func (s *friendRequestRepoImpl) ListPendingTo(ctx context.Context, to uint64) ([]*FriendRequest, error) {
	return s.list(ctx, bson.M{"to": to, "status": StatusPending})
}

func (s *friendRequestRepoImpl) list(ctx context.Context, filter bson.M) ([]*FriendRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*FriendRequest, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
