// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormPlayer 玩家档案模型。玩家以显示名标识（核心不校验重名）
type GormPlayer struct {
	gorm.Model
	Name    string                 `gorm:"uniqueIndex;not null"`
	Profile map[string]interface{} `gorm:"type:jsonb"`
}

// GormGameRecord 开局存档模型
type GormGameRecord struct {
	gorm.Model
	RoomCode    string                 `gorm:"index;not null"`
	Players     map[string]interface{} `gorm:"type:jsonb;not null"` // name -> {host, roll}
	FirstHunter string                 `gorm:"not null"`
}

// 与database/sql实现共用同一组表
func (GormPlayer) TableName() string     { return "players" }
func (GormGameRecord) TableName() string { return "game_records" }
