package service

import (
	"SetMatch/internal/api/config"
	"SetMatch/internal/pkg/mongo"
	"context"
)

// pairedWriter 一次交互涉及的两条记录的写入方式
type pairedWriter struct {
	tx            mongo.Transactor
	transactional bool
}

func newPairedWriter(tx mongo.Transactor, mode string) pairedWriter {
	return pairedWriter{
		tx:            tx,
		transactional: tx != nil && mode != config.PairedUpdateBestEffort,
	}
}

// run transactional 模式下 fn 在同一个 Mongo 事务中执行，否则直接执行
func (w pairedWriter) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !w.transactional {
		return fn(ctx)
	}
	return w.tx.WithTransaction(ctx, fn)
}
