package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid               = errors.New("参数错误")
	ErrUnauthorized               = errors.New("未登录或登录已过期")
	ErrForbidden                  = errors.New("权限不足")
	ErrUserNotFound               = errors.New("用户不存在")
	ErrNotificationNotFound       = errors.New("通知不存在")
	ErrNotificationNotRespondable = errors.New("该通知不可响应")
	ErrNotificationProcessed      = errors.New("通知已处理")
	ErrOfferInvalid               = errors.New("报价内容无效")
	ErrFriendRequestSelf          = errors.New("不能向自己发送好友申请")
	ErrFriendRequestExist         = errors.New("好友申请已发送")
	ErrFriendRequestNotFound      = errors.New("好友申请不存在")
	ErrFriendRequestProcessed     = errors.New("好友申请已处理")
	ErrFriendAlready              = errors.New("你们已经是好友")
	ErrUnavailable                = errors.New("服务暂不可用，请稍后重试")
	UnExpectedError               = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:               BadRequest,
	ErrUnauthorized:               Unauthorized,
	ErrForbidden:                  Forbidden,
	ErrUserNotFound:               NotFound,
	ErrNotificationNotFound:       NotFound,
	ErrNotificationNotRespondable: BadRequest,
	ErrNotificationProcessed:      Conflict,
	ErrOfferInvalid:               BadRequest,
	ErrFriendRequestSelf:          BadRequest,
	ErrFriendRequestExist:         Conflict,
	ErrFriendRequestNotFound:      NotFound,
	ErrFriendRequestProcessed:     Conflict,
	ErrFriendAlready:              Conflict,
	ErrUnavailable:                ServiceUnavailable,
	UnExpectedError:               InternalServerError,
}

// Classify 找到 err 链上的业务错误，返回错误码与对外文案
func Classify(err error) (int, string, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, err.Error(), true
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, target.Error(), true
		}
	}
	return 0, "", false
}
