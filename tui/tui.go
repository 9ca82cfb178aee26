// Package tui is a terminal front end for one game session.
package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-torus/render"
	"github.com/hoshinonyaruko/snake-torus/session"
	"github.com/hoshinonyaruko/snake-torus/snake"
	"github.com/hoshinonyaruko/snake-torus/structs"
)

// Action is what a key press asks the game to do.
type Action string

const (
	ActionNone    Action = ""
	ActionPause   Action = "pause"
	ActionRestart Action = "restart"
	ActionQuit    Action = "quit"
)

// Cues receives game events worth a sound.
type Cues interface {
	PlayEat()
	PlayGameOver()
}

var (
	styleBorder   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSnake    = tcell.StyleDefault.Background(tcell.ColorGreen)
	styleApple    = tcell.StyleDefault.Background(tcell.ColorRed)
	styleObstacle = tcell.StyleDefault.Background(tcell.ColorGray)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// KeyAction maps arrows/WASD to directions, P to pause, R to restart and
// Q, Esc or Ctrl-C to quit.
func KeyAction(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyUp:
		return Action(structs.Up)
	case tcell.KeyDown:
		return Action(structs.Down)
	case tcell.KeyLeft:
		return Action(structs.Left)
	case tcell.KeyRight:
		return Action(structs.Right)
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			return Action(structs.Up)
		case 's', 'S':
			return Action(structs.Down)
		case 'a', 'A':
			return Action(structs.Left)
		case 'd', 'D':
			return Action(structs.Right)
		case 'p', 'P':
			return ActionPause
		case 'r', 'R':
			return ActionRestart
		case 'q', 'Q':
			return ActionQuit
		}
	}
	return ActionNone
}

// Draw paints snap with every board cell two columns wide inside a border.
func Draw(screen tcell.Screen, snap structs.Snapshot) {
	screen.Clear()

	w, h := snap.Width*2, snap.Height
	for x := 0; x < w+2; x++ {
		screen.SetContent(x, 0, '─', nil, styleBorder)
		screen.SetContent(x, h+1, '─', nil, styleBorder)
	}
	for y := 0; y < h+2; y++ {
		screen.SetContent(0, y, '│', nil, styleBorder)
		screen.SetContent(w+1, y, '│', nil, styleBorder)
	}

	paint := func(cells []structs.Cell, style tcell.Style) {
		for _, c := range cells {
			if c.X < 0 || c.X >= snap.Width || c.Y < 0 || c.Y >= snap.Height {
				continue
			}
			screen.SetContent(1+c.X*2, 1+c.Y, ' ', nil, style)
			screen.SetContent(2+c.X*2, 1+c.Y, ' ', nil, style)
		}
	}
	paint(snap.ObstacleCells, styleObstacle)
	paint(snap.AppleCells, styleApple)
	paint(snap.SnakeCells, styleSnake)

	for i, r := range render.StatusText(snap) {
		screen.SetContent(i, h+2, r, nil, styleStatus)
	}
	screen.Show()
}

// Run shows the game on screen and forwards key presses to runner until the
// player quits, ctx is done or the runner stops. While the game is paused
// only the pause and quit keys are handled. cues may be nil.
func Run(ctx context.Context, screen tcell.Screen, runner *session.Runner, cues Cues) error {
	frames, cancel := runner.Subscribe()
	defer cancel()

	events := make(chan tcell.Event, 8)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	var paused bool
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			paused = frame.Snapshot.IsPaused
			if cues != nil {
				switch frame.Outcome {
				case snake.OutcomeAte.String():
					cues.PlayEat()
				case snake.OutcomeGameOver.String():
					cues.PlayGameOver()
				}
			}
			Draw(screen, frame.Snapshot)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				action := KeyAction(ev)
				if paused && action != ActionPause && action != ActionQuit {
					continue
				}
				if action == ActionQuit {
					return nil
				}
				if err := apply(ctx, runner, action); err != nil {
					return err
				}
			}
		}
	}
}

func apply(ctx context.Context, runner *session.Runner, action Action) error {
	switch action {
	case ActionNone:
		return nil
	case ActionPause:
		_, err := runner.TogglePause(ctx)
		return err
	case ActionRestart:
		return runner.Restart(ctx)
	}
	_, err := runner.SetDirection(ctx, structs.Direction(action))
	return err
}
