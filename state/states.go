package state

import (
	"github.com/wfunc/huntserver/logger"
)

// 房间状态ID。大厅只能进入游戏状态，没有回头路
const (
	StateLobby  = "lobby"
	StateInGame = "in_game"
)

// LobbyState 大厅状态：聚合准备情况，等待房主开局
type LobbyState struct {
	RoomStateBase
}

func NewLobbyState(room RoomContext) *LobbyState {
	return &LobbyState{
		RoomStateBase: RoomStateBase{
			ID:   StateLobby,
			Room: room,
		},
	}
}

// InGameState 游戏进行状态：发牌完成后进入，只接受亮牌操作
type InGameState struct {
	RoomStateBase
}

func NewInGameState(room RoomContext) *InGameState {
	return &InGameState{
		RoomStateBase: RoomStateBase{
			ID:   StateInGame,
			Room: room,
		},
	}
}

func (s *InGameState) OnEnter() {
	logger.Log.Infof("房间 %s 进入游戏状态，人数: %d", s.Room.GetCode(), s.Room.MemberCount())
}
