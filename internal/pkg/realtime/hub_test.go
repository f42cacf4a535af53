package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordConn struct {
	id  string
	err error

	mu       sync.Mutex
	received [][]byte
}

func (c *recordConn) ID() string { return c.id }

func (c *recordConn) Send(payload []byte) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, payload)
	return nil
}

func (c *recordConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func TestHub_PushReachesEveryConnInRoom(t *testing.T) {
	h := NewHub()
	a := &recordConn{id: "a"}
	b := &recordConn{id: "b"}
	other := &recordConn{id: "c"}
	h.Join(1, a)
	h.Join(1, b)
	h.Join(2, other)

	h.Push(context.Background(), 1, &Event{Event: "newNotification", Data: map[string]any{"id": "x"}})

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 0, other.count())
	assert.JSONEq(t, `{"event":"newNotification","data":{"id":"x"}}`, string(a.received[0]))
}

func TestHub_PushToEmptyRoomIsDropped(t *testing.T) {
	h := NewHub()
	assert.Equal(t, 0, h.Deliver(context.Background(), 42, []byte("{}")))
	assert.Equal(t, 0, h.ConnCount(42))
}

func TestHub_JoinIsIdempotentAndLeaveClearsAllRooms(t *testing.T) {
	h := NewHub()
	c := &recordConn{id: "a"}
	h.Join(1, c)
	h.Join(1, c)
	h.Join(2, c)
	assert.Equal(t, 1, h.ConnCount(1))
	assert.Equal(t, 1, h.ConnCount(2))

	h.Leave(c)
	assert.Equal(t, 0, h.ConnCount(1))
	assert.Equal(t, 0, h.ConnCount(2))
	assert.Equal(t, 0, h.Deliver(context.Background(), 1, []byte("{}")))

	// 未加入过的连接离开无副作用
	h.Leave(&recordConn{id: "ghost"})
}

func TestHub_FailingConnDoesNotBlockOthers(t *testing.T) {
	h := NewHub()
	bad := &recordConn{id: "bad", err: ErrSlowConsumer}
	good := &recordConn{id: "good"}
	h.Join(7, bad)
	h.Join(7, good)

	assert.Equal(t, 1, h.Deliver(context.Background(), 7, []byte("{}")))
	assert.Equal(t, 1, good.count())
}

type loopbackPublisher struct {
	hub      *RedisHub
	err      error
	channels []string
}

func (p *loopbackPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.channels = append(p.channels, channel)
	if p.err != nil {
		return p.err
	}
	p.hub.HandleMessage(ctx, channel, payload)
	return nil
}

func TestRedisHub_PublishesToParticipantChannel(t *testing.T) {
	pub := &loopbackPublisher{}
	h := NewRedisHubWithPublisher("realtime:room:", pub)
	pub.hub = h
	c := &recordConn{id: "a"}
	h.Join(99, c)

	h.Push(context.Background(), 99, &Event{Event: "newNotification"})

	assert.Equal(t, []string{"realtime:room:99"}, pub.channels)
	// 只经订阅投递一次
	assert.Equal(t, 1, c.count())
}

func TestRedisHub_FallsBackToLocalOnPublishError(t *testing.T) {
	pub := &loopbackPublisher{err: errors.New("redis down")}
	h := NewRedisHubWithPublisher("realtime:room:", pub)
	pub.hub = h
	c := &recordConn{id: "a"}
	h.Join(5, c)

	h.Push(context.Background(), 5, &Event{Event: "newNotification"})
	assert.Equal(t, 1, c.count())
}

func TestRedisHub_IgnoresForeignChannel(t *testing.T) {
	h := NewRedisHubWithPublisher("realtime:room:", &loopbackPublisher{})
	c := &recordConn{id: "a"}
	h.Join(5, c)

	h.HandleMessage(context.Background(), "realtime:room:abc", []byte("{}"))
	assert.Equal(t, 0, c.count())
}

func TestRedisHub_SatisfiesRegistry(t *testing.T) {
	var _ Registry = NewRedisHubWithPublisher("p:", &loopbackPublisher{})
	var _ Registry = NewHub()
}
