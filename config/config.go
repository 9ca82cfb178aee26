package config

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-torus/snake"
	"github.com/hoshinonyaruko/snake-torus/structs"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath    string `json:"selfpath"`
	Port        string `json:"port"`
	Blocksize   int    `json:"blocksize"`
	SpritesDir  string `json:"spritesdir"`
	DBPath      string `json:"dbpath"`
	BoardWidth  int    `json:"boardwidth"`
	BoardHeight int    `json:"boardheight"`
	SnakeSize   int    `json:"snakesize"`
	Direction   string `json:"direction"`
	TickMs      int    `json:"tickms"`
	ObstacleMs  int    `json:"obstaclems"`
	MaxAttempts int    `json:"maxattempts"`
	StrictWrap  bool   `json:"strictwrap"` // 越界时回到 bound-1 而不是 bound
	TurnStep    bool   `json:"turnstep"`   // 转向时立即多走一步
	Seed        uint64 `json:"seed"`       // 0 表示按时间取随机种子
}

var (
	instance *AppConfig
	once     sync.Once
)

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		SelfPath:    "http://www.example.com", // Default value
		Port:        "38870",                  // Default value
		Blocksize:   20,
		SpritesDir:  "./sprites",
		DBPath:      "game.db",
		BoardWidth:  40,
		BoardHeight: 30,
		SnakeSize:   3,
		Direction:   string(structs.Down),
		TickMs:      40,
		ObstacleMs:  10000,
		MaxAttempts: snake.DefaultMaxAttempts,
		TurnStep:    true,
	}
}

// LoadConfig initializes and returns the instance of AppConfig
func LoadConfig(filePath string) *AppConfig {
	once.Do(func() {
		instance = Default()
		// Load the config file if it exists, otherwise create one
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			if err := saveConfig(filePath, instance); err != nil {
				panic(err)
			}
		} else if err := loadConfig(filePath, instance); err != nil {
			panic(err)
		}
	})
	return instance
}

// Get returns the loaded configuration, falling back to defaults before LoadConfig.
func Get() *AppConfig {
	if instance == nil {
		return Default()
	}
	return instance
}

// loadConfig loads the settings from the file
func loadConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cfg)
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// GetConfigValue returns the value of the configuration by key
func GetConfigValue(key string) interface{} {
	cfg := Get()
	switch key {
	case "selfpath":
		return cfg.SelfPath
	case "port":
		return cfg.Port
	case "blocksize":
		return cfg.Blocksize
	case "spritesdir":
		return cfg.SpritesDir
	case "dbpath":
		return cfg.DBPath
	case "boardwidth":
		return cfg.BoardWidth
	case "boardheight":
		return cfg.BoardHeight
	case "snakesize":
		return cfg.SnakeSize
	case "direction":
		return cfg.Direction
	case "tickms":
		return cfg.TickMs
	case "obstaclems":
		return cfg.ObstacleMs
	case "maxattempts":
		return cfg.MaxAttempts
	case "strictwrap":
		return cfg.StrictWrap
	case "turnstep":
		return cfg.TurnStep
	case "seed":
		return cfg.Seed
	default:
		return ""
	}
}

// DefaultSettings 以配置文件为一个新群生成默认游戏设置
func (c *AppConfig) DefaultSettings(groupID string) structs.GameSettings {
	return structs.GameSettings{
		GroupID:        groupID,
		BoardWidth:     c.BoardWidth,
		BoardHeight:    c.BoardHeight,
		SnakeSize:      c.SnakeSize,
		Direction:      structs.Direction(c.Direction),
		TickMillis:     c.TickMs,
		ObstacleMillis: c.ObstacleMs,
	}
}

// EngineConfig combines per-group settings with the global engine switches.
func (c *AppConfig) EngineConfig(s structs.GameSettings) snake.Config {
	cfg := snake.Config{
		BoardWidth:       s.BoardWidth,
		BoardHeight:      s.BoardHeight,
		InitialSize:      s.SnakeSize,
		InitialDirection: s.Direction,
		MaxAttempts:      c.MaxAttempts,
		Wrap:             snake.WrapLiteral,
		TurnStep:         c.TurnStep,
	}
	if c.StrictWrap {
		cfg.Wrap = snake.WrapStrict
	}
	return cfg
}

// Periods converts the settings' millisecond timers into durations.
func Periods(s structs.GameSettings) (tick, obstacle time.Duration) {
	return time.Duration(s.TickMillis) * time.Millisecond, time.Duration(s.ObstacleMillis) * time.Millisecond
}
