package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-torus/config"
	"github.com/hoshinonyaruko/snake-torus/snake"
	"github.com/hoshinonyaruko/snake-torus/structs"
)

// Store persists per-group game settings.
type Store interface {
	LoadSettings(groupID string) (structs.GameSettings, bool, error)
	SaveSettings(s structs.GameSettings) error
	DeleteSettings(groupID string) error
}

// ErrInvalidGroupID is returned for group ids that are not safe to use as file names.
var ErrInvalidGroupID = errors.New("session: invalid group id")

var groupIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidGroupID reports whether id may name a game and its rendered image.
func ValidGroupID(id string) bool {
	return groupIDPattern.MatchString(id)
}

type entry struct {
	runner *Runner
	cancel context.CancelFunc
}

// Manager keeps one running game per group id.
type Manager struct {
	mu      sync.Mutex
	ctx     context.Context
	store   Store
	cfg     *config.AppConfig
	runners map[string]*entry

	// NewRand builds the randomness for each new engine; tests replace it.
	NewRand func() snake.Rand
}

// NewManager creates a Manager whose runners live until ctx is canceled or Close is called.
func NewManager(ctx context.Context, store Store, cfg *config.AppConfig) *Manager {
	return &Manager{
		ctx:     ctx,
		store:   store,
		cfg:     cfg,
		runners: make(map[string]*entry),
		NewRand: func() snake.Rand { return snake.NewRand(cfg.Seed) },
	}
}

// Get returns the running game of a group.
func (m *Manager) Get(groupID string) (*Runner, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.runners[groupID]
	if !ok {
		return nil, false
	}
	return e.runner, true
}

// Open returns the group's running game, starting one if needed. Non-zero fields
// of req override the stored settings when a new game is started; an empty
// group id gets a generated one.
func (m *Manager) Open(groupID string, req structs.GameSettings) (*Runner, structs.GameSettings, error) {
	if groupID == "" {
		groupID = uuid.NewString()
	}
	if !ValidGroupID(groupID) {
		return nil, structs.GameSettings{}, fmt.Errorf("%w: %q", ErrInvalidGroupID, groupID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	settings, found, err := m.store.LoadSettings(groupID)
	if err != nil {
		return nil, settings, fmt.Errorf("load settings for %s: %w", groupID, err)
	}
	if e, ok := m.runners[groupID]; ok {
		return e.runner, settings, nil
	}
	if !found {
		settings = m.cfg.DefaultSettings(groupID)
	}
	settings = mergeSettings(settings, req)
	if settings.TickMillis <= 0 || settings.ObstacleMillis <= 0 {
		return nil, settings, &snake.ConfigurationError{Field: "timers", Reason: fmt.Sprintf("tick %dms and obstacle %dms must be positive", settings.TickMillis, settings.ObstacleMillis)}
	}

	engine, err := snake.NewEngine(m.cfg.EngineConfig(settings), m.NewRand())
	if err != nil {
		return nil, settings, err
	}
	if err := m.store.SaveSettings(settings); err != nil {
		return nil, settings, fmt.Errorf("save settings for %s: %w", groupID, err)
	}

	tick, obstacle := config.Periods(settings)
	runner := NewRunner(groupID, engine, tick, obstacle)
	ctx, cancel := context.WithCancel(m.ctx)
	m.runners[groupID] = &entry{runner: runner, cancel: cancel}
	go func() {
		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("[%s] runner stopped: %v", groupID, err)
		}
	}()
	log.Printf("[%s] new game %dx%d snake=%d direction=%s", groupID, settings.BoardWidth, settings.BoardHeight, settings.SnakeSize, settings.Direction)
	return runner, settings, nil
}

func mergeSettings(base, req structs.GameSettings) structs.GameSettings {
	if req.BoardWidth != 0 {
		base.BoardWidth = req.BoardWidth
	}
	if req.BoardHeight != 0 {
		base.BoardHeight = req.BoardHeight
	}
	if req.SnakeSize != 0 {
		base.SnakeSize = req.SnakeSize
	}
	if req.Direction != "" {
		base.Direction = req.Direction
	}
	if req.TickMillis != 0 {
		base.TickMillis = req.TickMillis
	}
	if req.ObstacleMillis != 0 {
		base.ObstacleMillis = req.ObstacleMillis
	}
	return base
}

// Delete stops the group's game and forgets its settings.
func (m *Manager) Delete(groupID string) error {
	m.mu.Lock()
	e, ok := m.runners[groupID]
	delete(m.runners, groupID)
	m.mu.Unlock()

	if ok {
		e.cancel()
		<-e.runner.Done()
	}
	return m.store.DeleteSettings(groupID)
}

// Close stops every running game.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := m.runners
	m.runners = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		e.cancel()
		<-e.runner.Done()
	}
}
