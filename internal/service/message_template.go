package service

import (
	"SetMatch/internal/pkg/consts"
	"SetMatch/internal/pkg/mongo"
	"fmt"
)

// 发起时的文案，%s 为对方昵称
var createdTemplates = map[string]map[string]string{
	mongo.TypeOffer: {
		mongo.RoleReceiver: "你收到了来自 %s 的报价",
		mongo.RoleSender:   "等待 %s 回复你的报价",
	},
	mongo.TypeFriendRequest: {
		mongo.RoleReceiver: "%s 向你发送了好友申请",
		mongo.RoleSender:   "你向 %s 发送了好友申请",
	},
}

// 响应后的文案。接收方文案中 %s 为发起方昵称，发起方文案中 %s 为响应方昵称
var outcomeTemplates = map[string]map[string]map[string]string{
	mongo.TypeOffer: {
		consts.ActionAccept: {
			mongo.RoleReceiver: "你已接受 %s 的报价",
			mongo.RoleSender:   "你的报价已被 %s 接受",
		},
		consts.ActionReject: {
			mongo.RoleReceiver: "你已拒绝 %s 的报价",
			mongo.RoleSender:   "你的报价已被 %s 拒绝",
		},
	},
	mongo.TypeFriendRequest: {
		consts.ActionAccept: {
			mongo.RoleReceiver: "你已接受 %s 的好友申请",
			mongo.RoleSender:   "%s 接受了你的好友申请",
		},
		consts.ActionReject: {
			mongo.RoleReceiver: "你已拒绝 %s 的好友申请",
			mongo.RoleSender:   "%s 拒绝了你的好友申请",
		},
	},
}

func createdMessage(kind, role, name string) string {
	return fmt.Sprintf(createdTemplates[kind][role], name)
}

func outcomeMessage(kind, action, role, name string) string {
	return fmt.Sprintf(outcomeTemplates[kind][action][role], name)
}

func statusOf(action string) string {
	if action == consts.ActionAccept {
		return mongo.StatusAccepted
	}
	return mongo.StatusRejected
}

func actionOf(status string) string {
	if status == mongo.StatusAccepted {
		return consts.ActionAccept
	}
	return consts.ActionReject
}

func validAction(action string) bool {
	return action == consts.ActionAccept || action == consts.ActionReject
}
