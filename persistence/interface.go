// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/huntserver/models"
)

// Database 数据库接口。只存历史档案，房间的在线状态从不落库
type Database interface {
	SavePlayerProfile(name string, profile map[string]interface{}) error
	LoadPlayerProfile(name string) (map[string]interface{}, error)
	SaveGameRecord(record *models.GameRecord) error
	GetPlayerStats(name string) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

// recordPlayers 把开局存档的玩家列表转成以名字为键的jsonb结构
func recordPlayers(record *models.GameRecord) map[string]interface{} {
	players := make(map[string]interface{}, len(record.Players))
	for _, p := range record.Players {
		players[p.Name] = map[string]interface{}{
			"host": p.Host,
			"roll": p.Roll,
		}
	}
	return players
}
