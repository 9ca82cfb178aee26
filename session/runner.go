// Package session drives engines on their game and obstacle timers.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-torus/snake"
	"github.com/hoshinonyaruko/snake-torus/structs"
)

// ErrClosed is returned for commands sent to a runner that has stopped.
var ErrClosed = errors.New("session: runner closed")

// Frame is published to subscribers after every state change.
type Frame struct {
	Snapshot structs.Snapshot `json:"snapshot"`
	Outcome  string           `json:"outcome"`
}

type command struct {
	fn    func(e *snake.Engine) (snake.Outcome, error)
	reset bool // 重启两个计时器
	quiet bool // 只读命令，不推送
	reply chan result
}

type result struct {
	outcome snake.Outcome
	err     error
}

// Runner owns one engine. Timer callbacks and player commands are all executed
// on the Run goroutine, so the engine never sees concurrent calls.
type Runner struct {
	id            string
	engine        *snake.Engine
	tickEvery     time.Duration
	obstacleEvery time.Duration

	cmds chan command
	done chan struct{}

	subsMutex sync.Mutex
	subs      map[int]chan Frame
	nextSub   int
}

// NewRunner wraps engine; call Run to start the timers.
func NewRunner(id string, engine *snake.Engine, tickEvery, obstacleEvery time.Duration) *Runner {
	return &Runner{
		id:            id,
		engine:        engine,
		tickEvery:     tickEvery,
		obstacleEvery: obstacleEvery,
		cmds:          make(chan command),
		done:          make(chan struct{}),
		subs:          make(map[int]chan Frame),
	}
}

func (r *Runner) ID() string { return r.id }

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run ticks the engine until ctx is canceled. Both timers are stopped while the
// game is paused or over, and restarted on their full period when it resumes.
func (r *Runner) Run(ctx context.Context) error {
	defer r.closeSubscribers()
	defer close(r.done)

	var gameTicker, obstacleTicker *time.Ticker
	stopTimers := func() {
		if gameTicker != nil {
			gameTicker.Stop()
			obstacleTicker.Stop()
			gameTicker, obstacleTicker = nil, nil
		}
	}
	syncTimers := func() {
		running := !r.engine.Paused() && !r.engine.Stopped()
		switch {
		case running && gameTicker == nil:
			gameTicker = time.NewTicker(r.tickEvery)
			obstacleTicker = time.NewTicker(r.obstacleEvery)
		case !running:
			stopTimers()
		}
	}
	defer stopTimers()

	syncTimers()
	r.publish(snake.OutcomeNone)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tickerC(gameTicker):
			outcome, err := r.engine.Tick()
			r.report(outcome, err)
		case <-tickerC(obstacleTicker):
			r.report(snake.OutcomeNone, r.engine.SpawnObstacleCell())
		case cmd := <-r.cmds:
			outcome, err := cmd.fn(r.engine)
			if cmd.reset {
				stopTimers()
			}
			if !cmd.quiet {
				r.report(outcome, err)
			}
			cmd.reply <- result{outcome: outcome, err: err}
		}
		syncTimers()
	}
}

func tickerC(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func (r *Runner) report(outcome snake.Outcome, err error) {
	if err != nil {
		log.Printf("[%s] engine error: %v", r.id, err)
	}
	switch outcome {
	case snake.OutcomeGameOver:
		log.Printf("[%s] Game Over. Your score: %d", r.id, r.engine.Score())
	case snake.OutcomeAte:
		log.Printf("[%s] Score: %d", r.id, r.engine.Score())
	}
	r.publish(outcome)
}

func (r *Runner) snapshot() structs.Snapshot {
	snap := r.engine.Snapshot()
	snap.GroupID = r.id
	return snap
}

func (r *Runner) publish(outcome snake.Outcome) {
	frame := Frame{Snapshot: r.snapshot(), Outcome: outcome.String()}
	r.subsMutex.Lock()
	defer r.subsMutex.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- frame:
		default:
			// slow subscriber, drop this frame
		}
	}
}

// Subscribe returns a channel of frames and a cancel func. The channel is closed
// when the runner stops or cancel is called.
func (r *Runner) Subscribe() (<-chan Frame, func()) {
	r.subsMutex.Lock()
	defer r.subsMutex.Unlock()

	ch := make(chan Frame, 16)
	select {
	case <-r.done:
		close(ch)
		return ch, func() {}
	default:
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subsMutex.Lock()
			defer r.subsMutex.Unlock()
			if sub, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(sub)
			}
		})
	}
}

func (r *Runner) closeSubscribers() {
	r.subsMutex.Lock()
	defer r.subsMutex.Unlock()
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

func (r *Runner) do(ctx context.Context, cmd command) (snake.Outcome, error) {
	cmd.reply = make(chan result, 1)
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return snake.OutcomeNone, ErrClosed
	case <-ctx.Done():
		return snake.OutcomeNone, ctx.Err()
	}
	res := <-cmd.reply
	return res.outcome, res.err
}

// SetDirection forwards a direction key press.
func (r *Runner) SetDirection(ctx context.Context, d structs.Direction) (snake.Outcome, error) {
	return r.do(ctx, command{fn: func(e *snake.Engine) (snake.Outcome, error) {
		return e.SetDirection(d)
	}})
}

// TogglePause flips pause and returns the new state.
func (r *Runner) TogglePause(ctx context.Context) (bool, error) {
	var paused bool
	_, err := r.do(ctx, command{fn: func(e *snake.Engine) (snake.Outcome, error) {
		paused = e.TogglePause()
		return snake.OutcomeNone, nil
	}})
	return paused, err
}

// Restart starts a new game and restarts both timers.
func (r *Runner) Restart(ctx context.Context) error {
	_, err := r.do(ctx, command{reset: true, fn: func(e *snake.Engine) (snake.Outcome, error) {
		return snake.OutcomeNone, e.Restart()
	}})
	return err
}

// SpawnObstacle adds an obstacle cell outside the obstacle timer.
func (r *Runner) SpawnObstacle(ctx context.Context) error {
	_, err := r.do(ctx, command{fn: func(e *snake.Engine) (snake.Outcome, error) {
		return snake.OutcomeNone, e.SpawnObstacleCell()
	}})
	return err
}

// Snapshot reads the current state.
func (r *Runner) Snapshot(ctx context.Context) (structs.Snapshot, error) {
	var snap structs.Snapshot
	_, err := r.do(ctx, command{quiet: true, fn: func(*snake.Engine) (snake.Outcome, error) {
		snap = r.snapshot()
		return snake.OutcomeNone, nil
	}})
	return snap, err
}
