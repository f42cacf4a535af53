package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor 在同一 Mongo 会话事务中执行 fn，fn 内使用传入的 ctx 访问仓储即可加入事务
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type transactorImpl struct {
	client *mongo.Client
}

func NewTransactor(db *mongo.Database) Transactor {
	return &transactorImpl{client: db.Client()}
}

// WithTransaction 事务需要副本集；fn 可能因瞬时错误被驱动重试，不要在 fn 内做推送等副作用
func (s *transactorImpl) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
