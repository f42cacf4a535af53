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

type NotificationRepo interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Notification, error)
	List(ctx context.Context, userID uint64, unreadOnly bool) ([]*Notification, error)
	Update(ctx context.Context, id primitive.ObjectID, patch NotificationPatch) (*Notification, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, patch NotificationPatch) (*Notification, error)
	FindCounterpart(ctx context.Context, q CounterpartQuery) (*Notification, error)
	FindByFriendRequest(ctx context.Context, requestID primitive.ObjectID, userID uint64) (*Notification, error)
	FindSettledSince(ctx context.Context, since time.Time, limit int64) ([]*Notification, error)
	MarkAsRead(ctx context.Context, userID uint64, id primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID uint64) error
	GetUnreadCount(ctx context.Context, userID uint64) (int64, error)
}

type notificationRepoImpl struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) NotificationRepo {
	return &notificationRepoImpl{
		col: db.Collection(NotificationCollection),
	}
}

// Create 插入新通知，协商类通知默认 pending
func (s *notificationRepoImpl) Create(ctx context.Context, n *Notification) error {
	if err := n.validate(); err != nil {
		return err
	}
	if n.IsNegotiable() && n.Status == "" {
		n.Status = StatusPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}

	res, err := s.col.InsertOne(ctx, n)
	if err != nil {
		return translateWriteErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}
	return nil
}

// GetByID 根据 ID 获取通知
func (s *notificationRepoImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Notification, error) {
	var n Notification
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// List 获取用户通知，按最后变更时间倒序
func (s *notificationRepoImpl) List(ctx context.Context, userID uint64, unreadOnly bool) ([]*Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*Notification, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Update 无条件原地更新
func (s *notificationRepoImpl) Update(ctx context.Context, id primitive.ObjectID, patch NotificationPatch) (*Notification, error) {
	return s.findOneAndSet(ctx, bson.M{"_id": id}, patch)
}

// TransitionStatus 仅当 status 仍为 pending 时更新 (CAS)，保证状态单调
func (s *notificationRepoImpl) TransitionStatus(ctx context.Context, id primitive.ObjectID, patch NotificationPatch) (*Notification, error) {
	n, err := s.findOneAndSet(ctx, bson.M{"_id": id, "status": StatusPending}, patch)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	// 区分 "不存在" 与 "已处理"
	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusConflict
}

func (s *notificationRepoImpl) findOneAndSet(ctx context.Context, filter bson.M, patch NotificationPatch) (*Notification, error) {
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = time.Now()
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n Notification
	err := s.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": patch.toSet()}, opts).Decode(&n)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// FindCounterpart 查找镜像通知，不存在时返回 (nil, nil)
func (s *notificationRepoImpl) FindCounterpart(ctx context.Context, q CounterpartQuery) (*Notification, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.findOptional(ctx, q.Filter(), opts)
}

// FindByFriendRequest 根据好友申请查找某一方的通知
func (s *notificationRepoImpl) FindByFriendRequest(ctx context.Context, requestID primitive.ObjectID, userID uint64) (*Notification, error) {
	filter := bson.M{
		"type":              TypeFriendRequest,
		"friend_request_id": requestID,
		"user_id":           userID,
	}
	return s.findOptional(ctx, filter, options.FindOne())
}

func (s *notificationRepoImpl) findOptional(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*Notification, error) {
	var n Notification
	err := s.col.FindOne(ctx, filter, opts).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// FindSettledSince 最近进入终态的接收方通知，供镜像对账使用
func (s *notificationRepoImpl) FindSettledSince(ctx context.Context, since time.Time, limit int64) ([]*Notification, error) {
	filter := bson.M{
		"role":       RoleReceiver,
		"type":       bson.M{"$in": []string{TypeOffer, TypeFriendRequest}},
		"status":     bson.M{"$in": []string{StatusAccepted, StatusRejected}},
		"updated_at": bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*Notification
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkAsRead 标记单条已读，不改变 updated_at 以免打乱列表顺序
func (s *notificationRepoImpl) MarkAsRead(ctx context.Context, userID uint64, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "user_id": userID}
	result, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkAllAsRead 将用户所有未读通知标记为已读
func (s *notificationRepoImpl) MarkAllAsRead(ctx context.Context, userID uint64) error {
	filter := bson.M{"user_id": userID, "is_read": false}
	update := bson.M{"$set": bson.M{"is_read": true}}
	_, err := s.col.UpdateMany(ctx, filter, update)
	return err
}

// GetUnreadCount 获取用户的未读通知总数
func (s *notificationRepoImpl) GetUnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
}
