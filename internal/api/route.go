package api

import (
	"SetMatch/internal/api/middleware"
	"SetMatch/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware(group.SlowThreshold))
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	auth := middleware.AuthMiddleware(group.Blacklist)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		// WebSocket 通过 ?token= 鉴权
		apiGroup.GET("/realtime", auth, group.WSHandler.Connect)

		notificationGroup := apiGroup.Group("/notifications")
		notificationGroup.Use(auth)
		{
			notificationGroup.POST("", group.NotificationHandler.Create)
			notificationGroup.GET("", group.NotificationHandler.List)
			notificationGroup.PATCH("/:id/respond", group.NotificationHandler.Respond)
			notificationGroup.POST("/:id/read", group.NotificationHandler.MarkRead)
			notificationGroup.POST("/read/all", group.NotificationHandler.MarkAllRead)
			notificationGroup.GET("/unread/count", group.NotificationHandler.GetUnreadCount)
		}

		offerGroup := apiGroup.Group("/offers")
		offerGroup.Use(auth)
		{
			offerGroup.POST("", group.OfferHandler.Submit)
			offerGroup.POST("/history", group.OfferHandler.SaveHistory)
			offerGroup.GET("/history", group.OfferHandler.ListHistory)
		}

		friendRequestGroup := apiGroup.Group("/friend-requests")
		friendRequestGroup.Use(auth)
		{
			friendRequestGroup.POST("", group.FriendRequestHandler.Submit)
			friendRequestGroup.POST("/:id/accept", group.FriendRequestHandler.Accept)
			friendRequestGroup.POST("/:id/reject", group.FriendRequestHandler.Reject)
			friendRequestGroup.GET("/sent", group.FriendRequestHandler.ListSent)
			friendRequestGroup.GET("/received", group.FriendRequestHandler.ListReceived)
		}

		apiGroup.GET("/friends", auth, group.FriendRequestHandler.ListFriends)

		// 需要登录 & 拥有 admin 角色
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(auth, middleware.CheckRoles("ADMIN"))
		{
			adminGroup.POST("/notifications/reconcile", group.AdminHandler.Reconcile)
		}
	}

	return r
}
