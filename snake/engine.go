package snake

import (
	"github.com/hoshinonyaruko/snake-torus/structs"
)

// Outcome is what a single engine step reports to the presentation layer.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeAte
	OutcomeGameOver
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAte:
		return "ate"
	case OutcomeGameOver:
		return "game_over"
	}
	return "none"
}

// Config is fixed at engine construction and reused on every restart.
type Config struct {
	BoardWidth       int
	BoardHeight      int
	InitialSize      int
	InitialDirection structs.Direction
	MaxAttempts      int
	Wrap             WrapMode
	// TurnStep makes every direction request also move the snake one cell
	// immediately, outside the tick cadence.
	TurnStep bool
}

// DefaultConfig 默认 40x30 棋盘，长度 3，向下
func DefaultConfig() Config {
	return Config{
		BoardWidth:       40,
		BoardHeight:      30,
		InitialSize:      3,
		InitialDirection: structs.Down,
		MaxAttempts:      DefaultMaxAttempts,
		Wrap:             WrapLiteral,
		TurnStep:         true,
	}
}

// minBoardSide keeps the spawn box at least one cell wide.
const minBoardSide = 2*SpawnMargin + 1

// Validate checks the configuration against the engine's placement rules.
func (c Config) Validate() error {
	if c.BoardWidth < minBoardSide || c.BoardHeight < minBoardSide {
		return configErr("board", "%dx%d is smaller than %dx%d", c.BoardWidth, c.BoardHeight, minBoardSide, minBoardSide)
	}
	if c.InitialSize < 1 {
		return configErr("snake_size", "must be at least 1, got %d", c.InitialSize)
	}
	area := (c.BoardWidth - 2*SpawnMargin + 1) * (c.BoardHeight - 2*SpawnMargin + 1)
	if c.InitialSize >= area {
		return configErr("snake_size", "%d leaves no free spawn cell on a %dx%d board", c.InitialSize, c.BoardWidth, c.BoardHeight)
	}
	if !c.InitialDirection.Valid() {
		return configErr("direction", "unknown direction %q", c.InitialDirection)
	}
	// 蛇身沿初始方向排开，超过这一轴的长度就会首尾相接
	axis, side := c.BoardHeight, "height"
	if c.InitialDirection == structs.Left || c.InitialDirection == structs.Right {
		axis, side = c.BoardWidth, "width"
	}
	if c.InitialSize > axis {
		return configErr("snake_size", "%d does not fit the board %s %d heading %s", c.InitialSize, side, axis, c.InitialDirection)
	}
	if c.MaxAttempts < 0 {
		return configErr("max_attempts", "must not be negative, got %d", c.MaxAttempts)
	}
	return nil
}

// Engine runs one game session: a snake, one apple and the accumulated obstacles.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	cfg   Config
	board *Board

	snake    *Snake
	apple    *Object
	obstacle *Object

	paused  bool
	stopped bool
	tick    uint64
}

// NewEngine validates cfg and starts a fresh game. rng may be nil.
func NewEngine(cfg Config, rng Rand) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:   cfg,
		board: NewBoard(cfg.BoardWidth, cfg.BoardHeight, cfg.MaxAttempts, cfg.Wrap, rng),
	}
	if err := e.reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// reset builds the snake, apple and obstacle together and swaps them in only
// when the apple could be placed.
func (e *Engine) reset() error {
	snake := NewSnake(e.board, e.cfg.InitialSize, e.cfg.InitialDirection)
	apple := NewObject("apple", e.board)
	obstacle := NewObject("obstacle", e.board)
	if err := apple.PlaceRandom(snake, 1); err != nil {
		return err
	}

	e.snake, e.apple, e.obstacle = snake, apple, obstacle
	e.paused = false
	e.stopped = false
	e.tick = 0
	return nil
}

func (e *Engine) Config() Config { return e.cfg }
func (e *Engine) Board() *Board  { return e.board }
func (e *Engine) Paused() bool   { return e.paused }
func (e *Engine) Stopped() bool  { return e.stopped }
func (e *Engine) Score() int     { return e.snake.score }
func (e *Engine) Alive() bool    { return e.snake.alive }

// Tick advances the game by one step. It does nothing while paused or stopped.
func (e *Engine) Tick() (Outcome, error) {
	if e.paused || e.stopped {
		return OutcomeNone, nil
	}
	e.tick++
	e.snake.Move(false)
	return e.checkCollisions()
}

func (e *Engine) checkCollisions() (Outcome, error) {
	if e.snake.CheckSelfCollision() || e.snake.CheckCollision(e.obstacle, false) {
		e.snake.alive = false
		e.stopped = true
		return OutcomeGameOver, nil
	}
	if e.snake.CheckCollision(e.apple, true) {
		if err := e.apple.PlaceRandom(e.snake, 1); err != nil {
			e.stopped = true
			return OutcomeNone, err
		}
		e.snake.Move(true)
		return OutcomeAte, nil
	}
	return OutcomeNone, nil
}

// SpawnObstacleCell adds one obstacle cell away from the snake.
func (e *Engine) SpawnObstacleCell() error {
	if e.paused || e.stopped {
		return nil
	}
	if err := e.obstacle.PlaceRandom(e.snake, 1); err != nil {
		e.stopped = true
		return err
	}
	return nil
}

// SetDirection forwards a heading request to the snake. Requests are ignored
// while paused or stopped, and unknown directions are dropped. With TurnStep
// enabled the snake then moves one extra cell, reversed requests included,
// and that move is collision checked like a tick.
func (e *Engine) SetDirection(requested structs.Direction) (Outcome, error) {
	if e.paused || e.stopped || !requested.Valid() {
		return OutcomeNone, nil
	}
	e.snake.ChangeDirection(requested)
	if !e.cfg.TurnStep {
		return OutcomeNone, nil
	}
	e.snake.Move(false)
	return e.checkCollisions()
}

// TogglePause flips the pause state of a live game and returns the new state.
func (e *Engine) TogglePause() bool {
	if !e.snake.alive || e.stopped {
		return e.paused
	}
	e.paused = !e.paused
	return e.paused
}

// Restart discards the current game and starts a new one from the configuration.
func (e *Engine) Restart() error {
	return e.reset()
}

// Snapshot copies the state the presentation layer needs to draw a frame.
func (e *Engine) Snapshot() structs.Snapshot {
	return structs.Snapshot{
		SnakeCells:    e.snake.Cells(),
		AppleCells:    e.apple.Cells(),
		ObstacleCells: e.obstacle.Cells(),
		Score:         e.snake.score,
		IsAlive:       e.snake.alive,
		IsPaused:      e.paused,
		IsStopped:     e.stopped,
		Direction:     e.snake.direction,
		Width:         e.board.Width,
		Height:        e.board.Height,
		Tick:          e.tick,
	}
}
