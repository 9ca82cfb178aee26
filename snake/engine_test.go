package snake

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hoshinonyaruko/snake-torus/structs"
)

// newScriptedEngine builds a 40x30 engine whose snake starts at (2,2) heading
// down and whose first apple lands on (22,22). Later draws repeat the script.
func newScriptedEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), &scriptRand{vals: []int{0, 0, 20, 20}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngineInitialState(t *testing.T) {
	e := newScriptedEngine(t)
	snap := e.Snapshot()

	wantSnake := []structs.Cell{{X: 2, Y: 2}, {X: 2, Y: 3}, {X: 2, Y: 4}}
	if !reflect.DeepEqual(snap.SnakeCells, wantSnake) {
		t.Errorf("snake: expected %v, got %v", wantSnake, snap.SnakeCells)
	}
	if !reflect.DeepEqual(snap.AppleCells, []structs.Cell{{X: 22, Y: 22}}) {
		t.Errorf("apple: expected [(22,22)], got %v", snap.AppleCells)
	}
	if len(snap.ObstacleCells) != 0 {
		t.Errorf("no obstacles expected at start, got %v", snap.ObstacleCells)
	}
	if !snap.IsAlive || snap.IsPaused || snap.IsStopped || snap.Score != 0 {
		t.Errorf("unexpected initial flags: %+v", snap)
	}
	if snap.Width != 40 || snap.Height != 30 || snap.Direction != structs.Down {
		t.Errorf("unexpected board/direction: %dx%d %s", snap.Width, snap.Height, snap.Direction)
	}
}

func TestTickEatsApple(t *testing.T) {
	e := newScriptedEngine(t)
	e.snake.cells = []structs.Cell{{X: 3, Y: 1}, {X: 3, Y: 2}}
	e.apple.cells = []structs.Cell{{X: 3, Y: 3}}
	preGrowth := []structs.Cell{{X: 3, Y: 2}, {X: 3, Y: 3}}

	outcome, err := e.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if outcome != OutcomeAte {
		t.Fatalf("expected OutcomeAte, got %s", outcome)
	}

	snap := e.Snapshot()
	if snap.Score != 1 {
		t.Errorf("expected score 1, got %d", snap.Score)
	}
	wantSnake := []structs.Cell{{X: 3, Y: 2}, {X: 3, Y: 3}, {X: 3, Y: 4}}
	if !reflect.DeepEqual(snap.SnakeCells, wantSnake) {
		t.Errorf("snake should grow onto (3,4): got %v", snap.SnakeCells)
	}
	if len(snap.AppleCells) != 1 {
		t.Fatalf("expected exactly one new apple, got %v", snap.AppleCells)
	}
	for _, c := range preGrowth {
		if snap.AppleCells[0] == c {
			t.Errorf("new apple %v placed on the snake", c)
		}
	}
	if snap.AppleCells[0] != (structs.Cell{X: 2, Y: 2}) {
		t.Errorf("expected scripted apple at (2,2), got %v", snap.AppleCells[0])
	}
}

func TestTickObstacleEndsGame(t *testing.T) {
	e := newScriptedEngine(t)
	e.snake.cells = []structs.Cell{{X: 3, Y: 1}, {X: 3, Y: 2}}
	e.snake.score = 2
	e.obstacle.cells = []structs.Cell{{X: 3, Y: 3}}

	outcome, err := e.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if outcome != OutcomeGameOver {
		t.Fatalf("expected OutcomeGameOver, got %s", outcome)
	}
	snap := e.Snapshot()
	if snap.IsAlive || !snap.IsStopped || snap.Score != 2 {
		t.Errorf("expected dead snake with score 2, got %+v", snap)
	}

	frozen := e.Snapshot()
	for i := 0; i < 5; i++ {
		if out, _ := e.Tick(); out != OutcomeNone {
			t.Errorf("tick after game over returned %s", out)
		}
	}
	if err := e.SpawnObstacleCell(); err != nil {
		t.Fatalf("SpawnObstacleCell: %v", err)
	}
	e.SetDirection(structs.Left)
	if e.TogglePause() {
		t.Error("pause must stay off for a dead snake")
	}
	if !reflect.DeepEqual(frozen, e.Snapshot()) {
		t.Errorf("state changed after game over:\nbefore %+v\nafter  %+v", frozen, e.Snapshot())
	}
}

func TestTickSelfCollisionEndsGame(t *testing.T) {
	e := newScriptedEngine(t)
	// A hook whose head turns up into its own body.
	e.snake.cells = []structs.Cell{{X: 4, Y: 4}, {X: 5, Y: 6}, {X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 6}, {X: 6, Y: 7}, {X: 5, Y: 7}}
	e.snake.direction = structs.Up
	e.apple.cells = []structs.Cell{{X: 30, Y: 20}}

	outcome, _ := e.Tick()
	if outcome != OutcomeGameOver {
		t.Fatalf("expected OutcomeGameOver, got %s (%v)", outcome, e.snake.Cells())
	}
	if e.Alive() {
		t.Error("snake should be dead")
	}
}

func TestRestartResetsGame(t *testing.T) {
	e := newScriptedEngine(t)
	e.snake.cells = []structs.Cell{{X: 3, Y: 1}, {X: 3, Y: 2}}
	e.snake.score = 4
	e.obstacle.cells = []structs.Cell{{X: 3, Y: 3}, {X: 10, Y: 10}}
	e.Tick()

	if err := e.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	snap := e.Snapshot()
	if snap.Score != 0 || !snap.IsAlive || snap.IsStopped || snap.IsPaused {
		t.Errorf("restart did not reset flags: %+v", snap)
	}
	if len(snap.SnakeCells) != 3 {
		t.Errorf("expected initial length 3, got %d", len(snap.SnakeCells))
	}
	if len(snap.ObstacleCells) != 0 || len(snap.AppleCells) != 1 {
		t.Errorf("expected fresh items, got apple=%v obstacle=%v", snap.AppleCells, snap.ObstacleCells)
	}
	if snap.Direction != structs.Down || snap.Tick != 0 {
		t.Errorf("expected direction down and tick 0, got %s %d", snap.Direction, snap.Tick)
	}
	if out, _ := e.Tick(); out == OutcomeGameOver {
		t.Error("restarted game should tick again")
	}
}

func TestPauseSuspendsGame(t *testing.T) {
	e := newScriptedEngine(t)
	if !e.TogglePause() {
		t.Fatal("expected paused after first toggle")
	}
	before := e.Snapshot()
	e.Tick()
	e.SetDirection(structs.Left)
	if err := e.SpawnObstacleCell(); err != nil {
		t.Fatalf("SpawnObstacleCell: %v", err)
	}
	if !reflect.DeepEqual(before, e.Snapshot()) {
		t.Error("paused engine changed state")
	}
	if e.TogglePause() {
		t.Fatal("expected running after second toggle")
	}
	e.Tick()
	if e.Snapshot().Tick != 1 {
		t.Errorf("expected one tick after resume, got %d", e.Snapshot().Tick)
	}
}

func TestSetDirectionStepsSnake(t *testing.T) {
	e := newScriptedEngine(t)
	e.snake.cells = []structs.Cell{{X: 10, Y: 10}, {X: 10, Y: 11}}

	if _, err := e.SetDirection(structs.Left); err != nil {
		t.Fatalf("SetDirection: %v", err)
	}
	if e.snake.Direction() != structs.Left || e.snake.Head() != (structs.Cell{X: 9, Y: 11}) {
		t.Errorf("expected left turn with one step, got %s %v", e.snake.Direction(), e.snake.Head())
	}

	// A reversal is refused but still moves along the current heading.
	e.SetDirection(structs.Right)
	if e.snake.Direction() != structs.Left || e.snake.Head() != (structs.Cell{X: 8, Y: 11}) {
		t.Errorf("reversal should keep heading and step, got %s %v", e.snake.Direction(), e.snake.Head())
	}

	before := e.Snapshot()
	e.SetDirection(structs.Direction("north"))
	if !reflect.DeepEqual(before, e.Snapshot()) {
		t.Error("invalid direction must not change state")
	}
}

func TestSetDirectionWithoutTurnStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TurnStep = false
	e, err := NewEngine(cfg, NewRand(11))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	head := e.snake.Head()
	e.SetDirection(structs.Left)
	if e.snake.Head() != head {
		t.Errorf("head moved without TurnStep: %v -> %v", head, e.snake.Head())
	}
	if e.snake.Direction() != structs.Left {
		t.Errorf("expected left, got %s", e.snake.Direction())
	}
}

func TestSpawnObstacleCellAvoidsSnake(t *testing.T) {
	e, err := NewEngine(DefaultConfig(), NewRand(5))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	for i := 0; i < 50; i++ {
		if err := e.SpawnObstacleCell(); err != nil {
			t.Fatalf("SpawnObstacleCell: %v", err)
		}
	}
	snap := e.Snapshot()
	if len(snap.ObstacleCells) != 50 {
		t.Errorf("expected 50 obstacle cells, got %d", len(snap.ObstacleCells))
	}
	for _, c := range snap.ObstacleCells {
		if e.snake.Contains(c) {
			t.Errorf("obstacle %v placed on the snake", c)
		}
	}
}

func TestEngineDeterminism(t *testing.T) {
	run := func() structs.Snapshot {
		e, err := NewEngine(DefaultConfig(), NewRand(12345))
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		for i := 0; i < 200; i++ {
			if i%25 == 0 {
				e.SpawnObstacleCell()
			}
			if i == 40 {
				e.SetDirection(structs.Left)
			}
			if i == 90 {
				e.SetDirection(structs.Up)
			}
			e.Tick()
		}
		return e.Snapshot()
	}
	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different games:\n%+v\n%+v", a, b)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	e := newScriptedEngine(t)
	snap := e.Snapshot()
	snap.SnakeCells[0] = structs.Cell{X: 99, Y: 99}
	snap.AppleCells[0] = structs.Cell{X: 99, Y: 99}
	if e.snake.Contains(structs.Cell{X: 99, Y: 99}) || e.apple.Contains(structs.Cell{X: 99, Y: 99}) {
		t.Error("snapshot shares memory with the engine")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"narrow board", func(c *Config) { c.BoardWidth = 4 }, "board"},
		{"short board", func(c *Config) { c.BoardHeight = 2 }, "board"},
		{"empty snake", func(c *Config) { c.InitialSize = 0 }, "snake_size"},
		{"snake fills spawn box", func(c *Config) { c.BoardWidth, c.BoardHeight, c.InitialSize = 5, 5, 4 }, "snake_size"},
		{"snake longer than board width", func(c *Config) {
			c.BoardWidth, c.BoardHeight, c.InitialSize, c.InitialDirection = 10, 10, 15, structs.Right
		}, "snake_size"},
		{"snake longer than board height", func(c *Config) {
			c.BoardWidth, c.BoardHeight, c.InitialSize, c.InitialDirection = 30, 8, 9, structs.Up
		}, "snake_size"},
		{"bad direction", func(c *Config) { c.InitialDirection = "north" }, "direction"},
		{"negative attempts", func(c *Config) { c.MaxAttempts = -1 }, "max_attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg, nil)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	// 横向 15 格放得下，只有纵向才会首尾相接
	wide := DefaultConfig()
	wide.BoardWidth, wide.BoardHeight, wide.InitialSize, wide.InitialDirection = 20, 10, 15, structs.Right
	if err := wide.Validate(); err != nil {
		t.Errorf("snake along the long axis should be valid: %v", err)
	}
}

func TestApplePlacementFailureStopsEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoardWidth, cfg.BoardHeight, cfg.InitialSize = 5, 5, 1
	cfg.MaxAttempts = 20
	// Snake at (2,2), apple at (3,3).
	e, err := NewEngine(cfg, &scriptRand{vals: []int{0, 0, 1, 1}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.snake.cells = []structs.Cell{{X: 4, Y: 4}, {X: 2, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 3}}
	e.snake.direction = structs.Right
	e.apple.cells = []structs.Cell{{X: 3, Y: 3}}

	// Moving right from (2,3) lands on the apple; every spawn cell is then taken.
	_, err = e.Tick()
	if !errors.Is(err, ErrPlacementExhausted) {
		t.Fatalf("expected ErrPlacementExhausted, got %v", err)
	}
	if !e.Stopped() {
		t.Error("engine should stop after a placement failure")
	}
	if snap := e.Snapshot(); !snap.IsAlive || !snap.IsStopped {
		t.Errorf("snapshot should show a stopped live snake, got alive=%v stopped=%v", snap.IsAlive, snap.IsStopped)
	}
}
