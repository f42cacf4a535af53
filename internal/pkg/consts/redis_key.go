package consts

const (
	UserDisplayNameKey = "user:display_name:"
	TokenBlacklistKey  = "token:blacklist:"
)

const (
	MirrorReconcileLock = "lock:notification:reconcile"
)
