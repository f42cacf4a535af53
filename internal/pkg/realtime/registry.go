package realtime

import (
	"context"
	"errors"
)

var (
	ErrConnClosed   = errors.New("realtime: connection closed")
	ErrSlowConsumer = errors.New("realtime: send buffer full")
)

// Conn 一条已建立的客户端连接
type Conn interface {
	ID() string
	Send(payload []byte) error
}

// Event 推送给客户端的事件
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Registry 参与者 -> 房间 -> 连接。推送是尽力而为的：房间内无连接时直接丢弃，不排队
type Registry interface {
	Join(participantID uint64, conn Conn)
	Leave(conn Conn)
	Push(ctx context.Context, participantID uint64, event *Event)
}
