// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/huntserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormPlayer{}, &models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SavePlayerProfile 按名字UPSERT玩家档案
func (p *GormPostgreSQL) SavePlayerProfile(name string, profile map[string]interface{}) error {
	var player models.GormPlayer
	result := p.db.Where("name = ?", name).First(&player)

	if result.Error == gorm.ErrRecordNotFound {
		player = models.GormPlayer{
			Name:    name,
			Profile: profile,
		}
		return p.db.Create(&player).Error
	} else if result.Error != nil {
		return result.Error
	}

	player.Profile = profile
	player.UpdatedAt = time.Now()
	return p.db.Save(&player).Error
}

// LoadPlayerProfile 加载玩家档案
func (p *GormPostgreSQL) LoadPlayerProfile(name string) (map[string]interface{}, error) {
	var player models.GormPlayer
	if err := p.db.Where("name = ?", name).First(&player).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return player.Profile, nil
}

// SaveGameRecord 保存开局存档
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	row := models.GormGameRecord{
		RoomCode:    record.RoomCode,
		Players:     recordPlayers(record),
		FirstHunter: record.FirstHunter,
	}
	return p.db.Create(&row).Error
}

// GetPlayerStats 按名字统计参局数、当房主数和先手数
func (p *GormPostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	var stats models.PlayerStats

	err := p.db.Raw(`
        SELECT
            COUNT(*) AS games,
            COALESCE(SUM(CASE WHEN players->?->>'host' = 'true' THEN 1 ELSE 0 END), 0) AS hosted,
            COALESCE(SUM(CASE WHEN first_hunter = ? THEN 1 ELSE 0 END), 0) AS first_hunts
        FROM game_records
        WHERE jsonb_exists(players, ?)`,
		name, name, name,
	).Scan(&stats).Error

	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
