// 关于蛇的移动与碰撞
package snake

import "github.com/hoshinonyaruko/snake-torus/structs"

// Snake is an ordered body, tail first and head last, with a heading and a score.
type Snake struct {
	*Object
	direction structs.Direction
	alive     bool
	score     int
	size      int
}

// NewSnake lays out a snake of the given size starting from a random cell in the
// spawn box. The body extends from the tail along the heading so the head is the
// last cell; cells that would fall off the board wrap around it.
func NewSnake(board *Board, size int, direction structs.Direction) *Snake {
	s := &Snake{
		Object:    NewObject("snake", board),
		direction: direction,
		alive:     true,
		size:      size,
	}
	start := board.randomCell()
	dx, dy := step(direction)
	for i := 0; i < size; i++ {
		s.cells = append(s.cells, structs.Cell{
			X: mod(start.X+i*dx, board.Width),
			Y: mod(start.Y+i*dy, board.Height),
		})
	}
	return s
}

func mod(v, n int) int {
	return ((v % n) + n) % n
}

// step 根据方向计算单位位移
func step(d structs.Direction) (int, int) {
	switch d {
	case structs.Up:
		return 0, -1
	case structs.Down:
		return 0, 1
	case structs.Left:
		return -1, 0
	case structs.Right:
		return 1, 0
	}
	return 0, 0
}

func (s *Snake) Direction() structs.Direction { return s.direction }
func (s *Snake) Alive() bool                  { return s.alive }
func (s *Snake) Score() int                   { return s.score }
func (s *Snake) Size() int                    { return s.size }

// Head returns the most recently added cell.
func (s *Snake) Head() structs.Cell {
	return s.cells[len(s.cells)-1]
}

// ChangeDirection sets the heading unless the request reverses it or is not a
// cardinal direction. It reports whether the heading was accepted.
func (s *Snake) ChangeDirection(requested structs.Direction) bool {
	if !requested.Valid() || requested == s.direction.Opposite() {
		return false
	}
	s.direction = requested
	return true
}

// Move steps the head one cell along the heading. Without grow the tail cell is
// dropped first so the length is unchanged; with grow the length, size and score
// all go up by one.
func (s *Snake) Move(grow bool) {
	head := s.Head()
	dx, dy := step(s.direction)
	next := s.board.WrapCell(structs.Cell{X: head.X + dx, Y: head.Y + dy})

	if grow {
		s.size++
		s.score++
	} else {
		s.cells = append(s.cells[:0], s.cells[1:]...)
	}
	s.cells = append(s.cells, next)
}

// CheckSelfCollision reports whether the head sits on any other segment.
func (s *Snake) CheckSelfCollision() bool {
	head := s.Head()
	for _, cell := range s.cells[:len(s.cells)-1] {
		if cell == head {
			return true
		}
	}
	return false
}

// CheckCollision reports whether any cell of other lies anywhere on the snake.
// With remove set, the first such cell is taken out of other.
func (s *Snake) CheckCollision(other *Object, remove bool) bool {
	for _, cell := range other.cells {
		if s.Contains(cell) {
			if remove {
				other.RemoveCell(cell)
			}
			return true
		}
	}
	return false
}
