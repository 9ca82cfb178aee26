package snake

import (
	"fmt"
	"time"

	"github.com/hoshinonyaruko/snake-torus/structs"
	"golang.org/x/exp/rand"
)

// SpawnMargin 随机生成的格子与棋盘边缘保持的距离
const SpawnMargin = 2

// DefaultMaxAttempts bounds the redraws for a single random cell.
const DefaultMaxAttempts = 10000

// Rand is the source of randomness for item placement.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a seeded Rand. A zero seed picks one from the clock.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}

// WrapMode selects where a coordinate that leaves the board below zero re-enters.
type WrapMode int

const (
	// WrapLiteral moves a coordinate below zero onto the bound itself (one past the
	// last valid index). The cell stays off-board until the snake leaves that axis.
	WrapLiteral WrapMode = iota
	// WrapStrict moves a coordinate below zero onto bound-1.
	WrapStrict
)

func (m WrapMode) String() string {
	if m == WrapStrict {
		return "strict"
	}
	return "literal"
}

// Board holds the grid bounds and placement rules shared by every object of one game.
type Board struct {
	Width       int
	Height      int
	MaxAttempts int
	Wrap        WrapMode

	rng Rand
}

// NewBoard 创建棋盘，rng 为 nil 时使用基于时间的随机源
func NewBoard(width, height, maxAttempts int, wrap WrapMode, rng Rand) *Board {
	if rng == nil {
		rng = NewRand(0)
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Board{Width: width, Height: height, MaxAttempts: maxAttempts, Wrap: wrap, rng: rng}
}

// InBounds reports whether c lies inside [0, Width) x [0, Height).
func (b *Board) InBounds(c structs.Cell) bool {
	return c.X >= 0 && c.X < b.Width && c.Y >= 0 && c.Y < b.Height
}

// WrapCell applies the toroidal boundary rule to a cell one step outside the board.
func (b *Board) WrapCell(c structs.Cell) structs.Cell {
	c.X = b.wrapAxis(c.X, b.Width)
	c.Y = b.wrapAxis(c.Y, b.Height)
	return c
}

func (b *Board) wrapAxis(v, bound int) int {
	switch {
	case v < 0:
		if b.Wrap == WrapStrict {
			return bound - 1
		}
		return bound
	case v >= bound:
		return 0
	}
	return v
}

// randomCell 在 [2, W-2] x [2, H-2] 范围内均匀取一个格子
func (b *Board) randomCell() structs.Cell {
	return structs.Cell{
		X: SpawnMargin + b.rng.Intn(b.Width-2*SpawnMargin+1),
		Y: SpawnMargin + b.rng.Intn(b.Height-2*SpawnMargin+1),
	}
}

// spawnArea is the number of cells randomCell can return.
func (b *Board) spawnArea() int {
	return (b.Width - 2*SpawnMargin + 1) * (b.Height - 2*SpawnMargin + 1)
}

// Occupant is anything that can answer a membership query for a cell.
type Occupant interface {
	Contains(c structs.Cell) bool
}

// Object is a named set of cells on a board. Apples and obstacles are plain
// Objects; the snake embeds one.
type Object struct {
	name  string
	board *Board
	cells []structs.Cell
}

// NewObject 创建一个空对象
func NewObject(name string, board *Board) *Object {
	return &Object{name: name, board: board}
}

func (o *Object) Name() string { return o.name }

func (o *Object) Len() int { return len(o.cells) }

// Cells returns a copy of the object's cells in insertion order.
func (o *Object) Cells() []structs.Cell {
	out := make([]structs.Cell, len(o.cells))
	copy(out, o.cells)
	return out
}

// Contains reports an exact coordinate match against any cell of the object.
func (o *Object) Contains(c structs.Cell) bool {
	for _, cell := range o.cells {
		if cell == c {
			return true
		}
	}
	return false
}

// RemoveCell removes the first occurrence of c. Absent cells are ignored.
func (o *Object) RemoveCell(c structs.Cell) {
	for i, cell := range o.cells {
		if cell == c {
			o.cells = append(o.cells[:i], o.cells[i+1:]...)
			return
		}
	}
}

// PlaceRandom appends count random cells drawn from the margin box, redrawing
// any candidate that avoid already contains. A cell that cannot be placed within
// the board's MaxAttempts draws stops placement with a *ConfigurationError;
// cells placed before it are kept.
func (o *Object) PlaceRandom(avoid Occupant, count int) error {
	for n := 0; n < count; n++ {
		cell, ok := o.drawFree(avoid)
		if !ok {
			return &ConfigurationError{
				Field:  "board",
				Reason: fmt.Sprintf("%s: %dx%d board has no free spawn cell after %d attempts", o.name, o.board.Width, o.board.Height, o.board.MaxAttempts),
				Err:    ErrPlacementExhausted,
			}
		}
		o.cells = append(o.cells, cell)
	}
	return nil
}

func (o *Object) drawFree(avoid Occupant) (structs.Cell, bool) {
	for attempt := 0; attempt < o.board.MaxAttempts; attempt++ {
		cell := o.board.randomCell()
		if avoid == nil || !avoid.Contains(cell) {
			return cell, true
		}
	}
	return structs.Cell{}, false
}
