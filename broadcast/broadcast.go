// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/huntserver/game"
	"github.com/wfunc/huntserver/logger"
	"github.com/wfunc/huntserver/room"
	"github.com/wfunc/huntserver/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrHostNotFound = errors.New("host not found")
)

// 广播接口
type Broadcaster interface {
	Deliver(msgs []game.Outbound)
	SendToSession(sessionID, event string, payload interface{}) error
	SendToRoom(roomCode, event string, payload interface{}) error
	SendToHost(roomCode, event string, payload interface{}) error
}

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

// Deliver 投递一批调度器产出的出站消息。投递失败只记录，不影响其他消息
func (b *RoomBroadcaster) Deliver(msgs []game.Outbound) {
	for _, msg := range msgs {
		var err error
		switch msg.Scope {
		case game.ScopeUnicast:
			err = b.SendToSession(msg.To, msg.Event, msg.Payload)
		case game.ScopeRoom:
			err = b.SendToRoom(msg.Room, msg.Event, msg.Payload)
		case game.ScopeHost:
			err = b.SendToHost(msg.Room, msg.Event, msg.Payload)
		}
		if err != nil {
			logger.Log.Warnf("投递 %s 失败: %v", msg.Event, err)
		}
	}
}

func (b *RoomBroadcaster) SendToSession(sessionID, event string, payload interface{}) error {
	sess, exists := b.sessionManager.Get(sessionID)
	if !exists {
		// 目标可能刚断线，按丢弃处理
		return nil
	}
	return sess.Send(event, payload)
}

func (b *RoomBroadcaster) SendToRoom(roomCode, event string, payload interface{}) error {
	r, exists := b.roomManager.GetRoom(roomCode)
	if !exists {
		return ErrRoomNotFound
	}

	for _, id := range r.Members() {
		sess, exists := b.sessionManager.Get(id)
		if !exists {
			continue
		}
		if err := sess.Send(event, payload); err != nil {
			// 发送错误不终止广播，连接清理交给读循环
			logger.Log.Warnf("向 %s 发送 %s 失败: %v", id, event, err)
		}
	}
	return nil
}

// SendToHost 只发给房间当前的房主
func (b *RoomBroadcaster) SendToHost(roomCode, event string, payload interface{}) error {
	r, exists := b.roomManager.GetRoom(roomCode)
	if !exists {
		return ErrRoomNotFound
	}

	for _, id := range r.Members() {
		sess, exists := b.sessionManager.Get(id)
		if exists && sess.Host {
			return sess.Send(event, payload)
		}
	}
	return ErrHostNotFound
}
