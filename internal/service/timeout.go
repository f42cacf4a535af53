package service

import (
	"SetMatch/internal/api/config"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	mongoDB "go.mongodb.org/mongo-driver/mongo"
)

// Timeouts 存储与用户目录调用的超时，<= 0 表示不设超时
type Timeouts struct {
	StoreTimeout     time.Duration
	DirectoryTimeout time.Duration
}

func TimeoutsFromConfig(cfg config.TimeoutConfig) Timeouts {
	return Timeouts{
		StoreTimeout:     time.Duration(cfg.StoreMs) * time.Millisecond,
		DirectoryTimeout: time.Duration(cfg.DirectoryMs) * time.Millisecond,
	}
}

func (t Timeouts) inStore(ctx context.Context, fn func(ctx context.Context) error) error {
	return callWithTimeout(ctx, t.StoreTimeout, fn)
}

func (t Timeouts) inDirectory(ctx context.Context, fn func(ctx context.Context) error) error {
	return callWithTimeout(ctx, t.DirectoryTimeout, fn)
}

func callWithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return asUnavailable(fn(ctx))
}

// asUnavailable 超时与网络错误统一归为 ErrUnavailable，其余原样返回
func asUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		mongoDB.IsTimeout(err) ||
		mongoDB.IsNetworkError(err) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
