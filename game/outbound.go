// game/outbound.go
package game

import (
	"github.com/wfunc/huntserver/models"
)

// Scope 决定一条出站消息发给谁
type Scope int

const (
	ScopeUnicast Scope = iota // 单个连接
	ScopeRoom                 // 房间全员
	ScopeHost                 // 仅房主
)

// Outbound 一条待投递的出站消息。调度器只产出消息，不碰传输层
type Outbound struct {
	Scope   Scope
	To      string // ScopeUnicast: 目标连接ID
	Room    string // ScopeRoom/ScopeHost: 房间号
	Event   string
	Payload interface{}
}

func Unicast(to, event string, payload interface{}) Outbound {
	return Outbound{Scope: ScopeUnicast, To: to, Event: event, Payload: payload}
}

func RoomCast(roomCode, event string, payload interface{}) Outbound {
	return Outbound{Scope: ScopeRoom, Room: roomCode, Event: event, Payload: payload}
}

func HostCast(roomCode, event string, payload interface{}) Outbound {
	return Outbound{Scope: ScopeHost, Room: roomCode, Event: event, Payload: payload}
}

// --- 线上载荷 ---

// CreateRoomReply createRoom的应答
type CreateRoomReply struct {
	Success  bool   `json:"success"`
	RoomCode string `json:"roomCode"`
	IsHost   bool   `json:"isHost"`
}

// JoinRoomReply joinRoom的应答。失败时只带message
type JoinRoomReply struct {
	Success bool   `json:"success"`
	IsHost  bool   `json:"isHost"`
	Message string `json:"message,omitempty"`
}

// ReadyUpdate 只发给房主的准备情况汇总
type ReadyUpdate struct {
	Names    []string `json:"names"`
	AllReady bool     `json:"allReady"`
}

// RollNotice 每个玩家自己的骰点
type RollNotice struct {
	Roll int `json:"roll"`
}

// FirstHunt 房间广播的先手玩家
type FirstHunt struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// PlayerFood 食物快照中的一项
type PlayerFood struct {
	Name string `json:"name"`
	Food int    `json:"food"`
}

// InitFood 开局食物。YourFood因人而异，其余是共享快照
type InitFood struct {
	YourFood    int          `json:"yourFood"`
	SharedFood  int          `json:"sharedFood"`
	PlayerFoods []PlayerFood `json:"playerFoods"`
}

// PlayerLostCard 房间广播的亮牌结果
type PlayerLostCard struct {
	PlayerID   string      `json:"playerId"`
	LostAnimal models.Card `json:"lostAnimal"`
}
