package realtime

import (
	"context"
	log "log/slog"
	"sync"

	"github.com/goccy/go-json"
)

// Hub 进程内的房间表，一个参与者可以有多条连接，一条连接也可以加入多个房间
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uint64]map[string]Conn
	joined map[string]map[uint64]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[uint64]map[string]Conn),
		joined: make(map[string]map[uint64]struct{}),
	}
}

// Join 将连接加入参与者的房间，重复加入无副作用
func (h *Hub) Join(participantID uint64, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[participantID]
	if !ok {
		room = make(map[string]Conn)
		h.rooms[participantID] = room
	}
	room[conn.ID()] = conn

	rooms, ok := h.joined[conn.ID()]
	if !ok {
		rooms = make(map[uint64]struct{})
		h.joined[conn.ID()] = rooms
	}
	rooms[participantID] = struct{}{}
}

// Leave 将连接移出其加入过的所有房间
func (h *Hub) Leave(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for participantID := range h.joined[conn.ID()] {
		room := h.rooms[participantID]
		delete(room, conn.ID())
		if len(room) == 0 {
			delete(h.rooms, participantID)
		}
	}
	delete(h.joined, conn.ID())
}

// Push 序列化事件并投递到本地房间
func (h *Hub) Push(ctx context.Context, participantID uint64, event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.ErrorContext(ctx, "realtime event marshal failed", "participant", participantID, "err", err)
		return
	}
	h.Deliver(ctx, participantID, payload)
}

// Deliver 投递到房间内所有连接，返回成功投递的连接数。发送失败只记录日志
func (h *Hub) Deliver(ctx context.Context, participantID uint64, payload []byte) int {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[participantID]))
	for _, c := range h.rooms[participantID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range conns {
		if err := c.Send(payload); err != nil {
			log.WarnContext(ctx, "realtime push dropped", "participant", participantID, "conn", c.ID(), "err", err)
			continue
		}
		delivered++
	}
	return delivered
}

// ConnCount 房间内的连接数
func (h *Hub) ConnCount(participantID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[participantID])
}
