package consts

// Context / gin.Context 中的键
const (
	UserIDKey = "user_id"
	RolesKey  = "roles"
)

// 协商动作
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// RealtimeEventNotification 推送给客户端的事件名
const RealtimeEventNotification = "newNotification"
