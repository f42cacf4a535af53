package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound 目标文档不存在
	ErrNotFound = mongo.ErrNoDocuments
	// ErrStatusConflict 状态已不是 pending，CAS 失败
	ErrStatusConflict = errors.New("mongo: status is no longer pending")
	// ErrDuplicate 唯一索引冲突
	ErrDuplicate = errors.New("mongo: duplicate key")
	// ErrInvalidDocument 缺少必填字段
	ErrInvalidDocument = errors.New("mongo: invalid document")
)

func translateWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
