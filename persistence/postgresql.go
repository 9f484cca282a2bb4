// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/huntserver/models"
)

// PostgreSQL database/sql实现，与GORM实现共用同一组表
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS players (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) UNIQUE NOT NULL,
            profile JSONB,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(4) NOT NULL,
            players JSONB NOT NULL,
            first_hunter VARCHAR(255) NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_players_name ON players(name);
        CREATE INDEX IF NOT EXISTS idx_game_records_room_code ON game_records(room_code);
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
    `)

	return err
}

// SavePlayerProfile 按名字UPSERT玩家档案
func (p *PostgreSQL) SavePlayerProfile(name string, profile map[string]interface{}) error {
	jsonData, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO players (name, profile)
        VALUES ($1, $2)
        ON CONFLICT (name)
        DO UPDATE SET profile = $2, updated_at = CURRENT_TIMESTAMP
    `

	_, err = p.db.ExecContext(ctx, query, name, jsonData)
	return err
}

// LoadPlayerProfile 加载玩家档案
func (p *PostgreSQL) LoadPlayerProfile(name string) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	query := `SELECT profile FROM players WHERE name = $1`
	err := p.db.QueryRowContext(ctx, query, name).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var profile map[string]interface{}
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SaveGameRecord 保存开局存档
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	playersJSON, err := json.Marshal(recordPlayers(record))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_records (room_code, players, first_hunter)
        VALUES ($1, $2, $3)
    `

	_, err = p.db.ExecContext(ctx, query, record.RoomCode, playersJSON, record.FirstHunter)
	return err
}

// GetPlayerStats 按名字统计参局数、当房主数和先手数
func (p *PostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN players->$1->>'host' = 'true' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN first_hunter = $1 THEN 1 ELSE 0 END), 0)
        FROM game_records
        WHERE jsonb_exists(players, $1)
    `

	var stats models.PlayerStats
	err := p.db.QueryRowContext(ctx, query, name).Scan(&stats.Games, &stats.Hosted, &stats.FirstHunts)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
