package api

import (
	"SetMatch/internal/api/handler"
	"SetMatch/internal/api/middleware"
	"time"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	NotificationHandler  *handler.NotificationHandler
	OfferHandler         *handler.OfferHandler
	FriendRequestHandler *handler.FriendRequestHandler
	AdminHandler         *handler.AdminHandler
	WSHandler            *handler.WsHandler

	Blacklist     middleware.TokenBlacklist
	SlowThreshold time.Duration
}
