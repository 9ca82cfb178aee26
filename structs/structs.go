package structs

// Cell 描述棋盘上的一个格子坐标，0 起始。
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction 蛇的移动方向（"up", "down", "left", "right"）
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Opposite returns the 180° reversal of d, or "" for an invalid direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return ""
}

// Snapshot 是渲染层读取的只读游戏状态。
type Snapshot struct {
	GroupID       string    `json:"group_id,omitempty"` // 会话标识
	SnakeCells    []Cell    `json:"snake_cells"`        // 蛇身，尾在前头在后
	AppleCells    []Cell    `json:"apple_cells"`        // 苹果，0 或 1 个格子
	ObstacleCells []Cell    `json:"obstacle_cells"`     // 障碍物，只增不减
	Score         int       `json:"score"`              // 吃掉的苹果数
	IsAlive       bool      `json:"is_alive"`
	IsPaused      bool      `json:"is_paused"`
	IsStopped     bool      `json:"is_stopped"` // 游戏结束后停止计时
	Direction     Direction `json:"direction"`
	Width         int       `json:"width"`  // 棋盘宽度（格）
	Height        int       `json:"height"` // 棋盘高度（格）
	Tick          uint64    `json:"tick"`   // 已执行的游戏步数
}

// GameSettings 描述一个群（会话）的游戏配置，持久化到数据库。
type GameSettings struct {
	GroupID        string    `json:"group_id"`
	BoardWidth     int       `json:"board_width"`
	BoardHeight    int       `json:"board_height"`
	SnakeSize      int       `json:"snake_size"`
	Direction      Direction `json:"direction"`
	TickMillis     int       `json:"tick_ms"`     // 游戏刷新间隔，毫秒
	ObstacleMillis int       `json:"obstacle_ms"` // 障碍物生成间隔，毫秒
}
