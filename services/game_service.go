// services/game_service.go
package services

import (
	"time"

	"github.com/wfunc/huntserver/logger"
	"github.com/wfunc/huntserver/models"
	"github.com/wfunc/huntserver/persistence"
)

// GameService 开局存档与玩家统计。只做历史归档，不参与在线状态
type GameService struct {
	db persistence.Database
}

func NewGameService(db persistence.Database) *GameService {
	return &GameService{db: db}
}

// RecordGameStart 落一条开局存档，并刷新每个玩家的档案。
// 在调度路径之外调用，失败只记录不回滚游戏
func (s *GameService) RecordGameStart(record *models.GameRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.db.SaveGameRecord(record); err != nil {
		return err
	}

	for _, p := range record.Players {
		profile := map[string]interface{}{
			"last_room": record.RoomCode,
			"last_seen": record.CreatedAt.Format(time.RFC3339),
		}
		if err := s.db.SavePlayerProfile(p.Name, profile); err != nil {
			logger.Log.Warnf("刷新玩家 %s 档案失败: %v", p.Name, err)
		}
	}
	return nil
}

// PlayerStats 查询玩家历史统计
func (s *GameService) PlayerStats(name string) (*models.PlayerStats, error) {
	return s.db.GetPlayerStats(name)
}
