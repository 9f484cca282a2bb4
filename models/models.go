// models/models.go
package models

import (
	"time"
)

// Card 角色卡。同名卡完全等价，没有独立身份
type Card string

const (
	CardLion    Card = "Lion"
	CardCobra   Card = "Cobra"
	CardRaven   Card = "Raven"
	CardOwl     Card = "Owl"
	CardPanther Card = "Panther"
)

// 游戏固定规则参数
const (
	CopiesPerKind  = 3  // 每种角色卡的张数
	DeckSize       = 15 // 整副牌张数
	HandSize       = 2  // 每人发牌张数
	RoomCapacity   = 6  // 房间人数上限
	StartingFood   = 2  // 开局私有食物
	StartingShared = 50 // 开局共享食物池
	DiceSides      = 20 // 先手骰子面数
)

// CardKinds 返回五种角色卡，顺序固定
func CardKinds() []Card {
	return []Card{CardLion, CardCobra, CardRaven, CardOwl, CardPanther}
}

// PlayerInfo 玩家信息（用于开局存档）
type PlayerInfo struct {
	Name string `json:"name"`
	Host bool   `json:"host"`
	Roll int    `json:"roll"`
}

// GameRecord 开局存档模型
type GameRecord struct {
	RoomCode    string       `json:"room_code"`
	Players     []PlayerInfo `json:"players"`
	FirstHunter string       `json:"first_hunter"`
	CreatedAt   time.Time    `json:"created_at"`
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	Games      int `json:"games"`
	Hosted     int `json:"hosted"`
	FirstHunts int `json:"first_hunts"`
}
