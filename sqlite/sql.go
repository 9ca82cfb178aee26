package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hoshinonyaruko/snake-torus/structs"
	_ "github.com/mattn/go-sqlite3"
)

// 只保存每个群的游戏设置，分数与棋盘状态不落盘
const createGamesTableSQL = `
CREATE TABLE IF NOT EXISTS Games (
    GroupID TEXT PRIMARY KEY,
    BoardWidth INTEGER,
    BoardHeight INTEGER,
    SnakeSize INTEGER,
    Direction TEXT,
    TickMillis INTEGER,
    ObstacleMillis INTEGER,
    UpdatedAt TIMESTAMP
);
`

const createGamesIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_games_updated ON Games (UpdatedAt);
`

func executeSQL(db *sql.DB, sqlStatement string) error {
	if _, err := db.Exec(sqlStatement); err != nil {
		return fmt.Errorf("error executing SQL statement: %s: %w", sqlStatement, err)
	}
	return nil
}

// InitializeDatabase creates the schema if it does not exist.
func InitializeDatabase(db *sql.DB) error {
	for _, stmt := range []string{createGamesTableSQL, createGamesIndexSQL} {
		if err := executeSQL(db, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// 单连接，避免 :memory: 数据库在多个连接间不共享
	db.SetMaxOpenConns(1)
	if err := InitializeDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Store implements session.Store on top of the Games table.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// LoadSettings returns the stored settings of a group and whether they exist.
func (s *Store) LoadSettings(groupID string) (structs.GameSettings, bool, error) {
	var settings structs.GameSettings
	var direction string
	err := s.DB.QueryRow("SELECT GroupID, BoardWidth, BoardHeight, SnakeSize, Direction, TickMillis, ObstacleMillis FROM Games WHERE GroupID = ?", groupID).Scan(
		&settings.GroupID, &settings.BoardWidth, &settings.BoardHeight, &settings.SnakeSize, &direction, &settings.TickMillis, &settings.ObstacleMillis,
	)
	if err == sql.ErrNoRows {
		return settings, false, nil
	}
	if err != nil {
		return settings, false, err
	}
	settings.Direction = structs.Direction(direction)
	return settings, true, nil
}

// SaveSettings inserts or replaces the settings of a group.
func (s *Store) SaveSettings(settings structs.GameSettings) error {
	// 开启事务
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("INSERT OR REPLACE INTO Games (GroupID, BoardWidth, BoardHeight, SnakeSize, Direction, TickMillis, ObstacleMillis, UpdatedAt) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		settings.GroupID, settings.BoardWidth, settings.BoardHeight, settings.SnakeSize, string(settings.Direction), settings.TickMillis, settings.ObstacleMillis, time.Now().Unix())
	if err != nil {
		tx.Rollback()
		return err
	}

	// 提交事务
	return tx.Commit()
}

// DeleteSettings removes a group's settings; deleting a missing group is not an error.
func (s *Store) DeleteSettings(groupID string) error {
	_, err := s.DB.Exec("DELETE FROM Games WHERE GroupID = ?", groupID)
	return err
}

// ListGroups returns all known group ids, most recently updated first.
func (s *Store) ListGroups() ([]string, error) {
	rows, err := s.DB.Query("SELECT GroupID FROM Games ORDER BY UpdatedAt DESC, GroupID")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		groups = append(groups, id)
	}
	return groups, rows.Err()
}
